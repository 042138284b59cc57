// Package correlate implements the Warden correlation pipeline: ordering
// guard, bounded entity state store, temporal window manager, scoring,
// kill-chain transition validation and evidence bundling. The pipeline is
// fail-closed: ordering violations drop the event, illegal transitions are
// rejected entity-scoped, and any internal structural inconsistency latches
// the whole engine into a halted state until it is externally restarted.
package correlate
