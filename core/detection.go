package core

import (
	"time"

	"github.com/google/uuid"
)

// alertNamespace is the UUIDv5 namespace for alert identifiers. Alert IDs
// are derived, not random: replaying an identical event stream must yield
// byte-identical results, alert IDs included.
var alertNamespace = uuid.MustParse("8f1c9d2e-4b6a-4f0e-9c3d-5a7b1e8d2c4f")

// DetectionResult is the immutable output of one accepted correlation
// decision. It is created once, never mutated, and handed to the policy
// collaborator downstream.
type DetectionResult struct {
	AlertID               string     `json:"alert_id"`
	EntityID              string     `json:"entity_id"`
	Stage                 Stage      `json:"stage"`
	Confidence            Confidence `json:"confidence"`
	ContributingSignalIDs []string   `json:"contributing_signal_ids"`
	EvidenceHash          string     `json:"evidence_hash"`
	GeneratedAt           time.Time  `json:"generated_at"`
}

// NewDetectionResult builds a result for an accepted stage transition.
// GeneratedAt is the triggering event's timestamp, not wall clock, for the
// same replay-determinism reason as the derived alert ID.
func NewDetectionResult(entityID string, stage Stage, confidence Confidence, signalIDs []string, evidenceHash string, at time.Time) *DetectionResult {
	ids := make([]string, len(signalIDs))
	copy(ids, signalIDs)
	return &DetectionResult{
		AlertID:               uuid.NewSHA1(alertNamespace, []byte(entityID+"|"+string(stage)+"|"+evidenceHash)).String(),
		EntityID:              entityID,
		Stage:                 stage,
		Confidence:            confidence,
		ContributingSignalIDs: ids,
		EvidenceHash:          evidenceHash,
		GeneratedAt:           at,
	}
}
