// Package core contains the domain types shared across the Warden
// correlation engine: validated telemetry events, per-entity state, the
// kill-chain stage machine, confidence scores, detection results and the
// typed error taxonomy. It has no dependencies on the pipeline packages.
package core
