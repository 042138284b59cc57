package core

// Stage represents a kill-chain stage of an intrusion in progress.
type Stage string

const (
	// StageUnknown is the implicit initial stage of every entity.
	StageUnknown             Stage = "unknown"
	StageReconnaissance      Stage = "reconnaissance"
	StageInitialAccess       Stage = "initial_access"
	StageExecution           Stage = "execution"
	StagePersistence         Stage = "persistence"
	StagePrivilegeEscalation Stage = "privilege_escalation"
	StageDefenseEvasion      Stage = "defense_evasion"
	StageCredentialAccess    Stage = "credential_access"
	StageDiscovery           Stage = "discovery"
	StageLateralMovement     Stage = "lateral_movement"
	StageCollection          Stage = "collection"
	StageCommandAndControl   Stage = "command_and_control"
	StageExfiltration        Stage = "exfiltration"
	StageImpact              Stage = "impact"
)

// stageRank orders stages by kill-chain progression. Unknown ranks below
// every real stage.
var stageRank = map[Stage]int{
	StageUnknown:             0,
	StageReconnaissance:      1,
	StageInitialAccess:       2,
	StageExecution:           3,
	StagePersistence:         4,
	StagePrivilegeEscalation: 5,
	StageDefenseEvasion:      6,
	StageCredentialAccess:    7,
	StageDiscovery:           8,
	StageLateralMovement:     9,
	StageCollection:          10,
	StageCommandAndControl:   11,
	StageExfiltration:        12,
	StageImpact:              13,
}

// stageOrder lists all stages in rank order for deterministic iteration.
var stageOrder = []Stage{
	StageUnknown,
	StageReconnaissance,
	StageInitialAccess,
	StageExecution,
	StagePersistence,
	StagePrivilegeEscalation,
	StageDefenseEvasion,
	StageCredentialAccess,
	StageDiscovery,
	StageLateralMovement,
	StageCollection,
	StageCommandAndControl,
	StageExfiltration,
	StageImpact,
}

// transitionTable is the explicit forward adjacency table. A transition from
// A to B is legal iff B == A (re-confirmation) or B appears in
// transitionTable[A]. Attacks skip phases, so every strictly later stage is
// an explicit successor; Impact has no successors — activity may continue at
// Impact, but there is nothing to escalate to.
var transitionTable = map[Stage][]Stage{
	StageUnknown:             forwardOf(StageUnknown),
	StageReconnaissance:      forwardOf(StageReconnaissance),
	StageInitialAccess:       forwardOf(StageInitialAccess),
	StageExecution:           forwardOf(StageExecution),
	StagePersistence:         forwardOf(StagePersistence),
	StagePrivilegeEscalation: forwardOf(StagePrivilegeEscalation),
	StageDefenseEvasion:      forwardOf(StageDefenseEvasion),
	StageCredentialAccess:    forwardOf(StageCredentialAccess),
	StageDiscovery:           forwardOf(StageDiscovery),
	StageLateralMovement:     forwardOf(StageLateralMovement),
	StageCollection:          forwardOf(StageCollection),
	StageCommandAndControl:   forwardOf(StageCommandAndControl),
	StageExfiltration:        forwardOf(StageExfiltration),
	StageImpact:              {},
}

func forwardOf(s Stage) []Stage {
	var out []Stage
	for _, t := range stageOrder {
		if stageRank[t] > stageRank[s] {
			out = append(out, t)
		}
	}
	return out
}

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// IsValid checks if the stage is a member of the enumeration.
func (s Stage) IsValid() bool {
	_, ok := stageRank[s]
	return ok
}

// Rank returns the stage's position in kill-chain progression, -1 for
// values outside the enumeration.
func (s Stage) Rank() int {
	r, ok := stageRank[s]
	if !ok {
		return -1
	}
	return r
}

// CanTransition reports whether moving from stage from to stage to is legal:
// same-stage re-confirmation, or a forward move present in the adjacency
// table. Anything else, including any backward move, is illegal.
func CanTransition(from, to Stage) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	for _, succ := range transitionTable[from] {
		if succ == to {
			return true
		}
	}
	return false
}

// Stages returns all stages in rank order, Unknown first.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}
