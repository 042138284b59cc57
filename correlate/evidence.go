package correlate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"warden/core"

	"github.com/vmihailenco/msgpack/v5"
)

// EvidenceBundler produces the tamper-evident hash binding a detection to
// the signals that justified it. The bundler hashes; signing is an external
// collaborator's job. Contract: the same signal set always produces the
// same hash, so audit replay can re-derive and compare it.
type EvidenceBundler struct{}

// evidenceBundle is the canonical serialization input. msgpack encodes
// struct fields in declaration order, and signals are sorted before
// encoding, so the byte stream is stable for a given signal set.
type evidenceBundle struct {
	EntityID string        `msgpack:"entity_id"`
	Stage    string        `msgpack:"stage"`
	Signals  []core.Signal `msgpack:"signals"`
}

// Hash returns the hex SHA-256 of the canonical bundle for the given
// detection candidate.
func (b *EvidenceBundler) Hash(entityID string, stage core.Stage, signals []core.Signal) (string, error) {
	sorted := make([]core.Signal, len(signals))
	copy(sorted, signals)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].EventID < sorted[j].EventID
	})

	raw, err := msgpack.Marshal(&evidenceBundle{
		EntityID: entityID,
		Stage:    stage.String(),
		Signals:  sorted,
	})
	if err != nil {
		return "", fmt.Errorf("encoding evidence bundle for entity %s: %w", entityID, err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
