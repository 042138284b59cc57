package correlate

import (
	"fmt"
	"os"

	"warden/core"

	"gopkg.in/yaml.v3"
)

// SignalProfile maps a signal type to the kill-chain stage it indicates and
// the weight of that indication.
type SignalProfile struct {
	Stage  core.Stage `yaml:"stage"`
	Weight float64    `yaml:"weight"`
}

// ProfileSet is the scoring table: signal_type -> profile. Signal types
// without a profile contribute nothing to any stage score.
type ProfileSet map[string]SignalProfile

// DefaultProfiles returns the built-in ransomware-oriented scoring table.
func DefaultProfiles() ProfileSet {
	return ProfileSet{
		"recon":               {Stage: core.StageReconnaissance, Weight: 1.0},
		"port_scan":           {Stage: core.StageReconnaissance, Weight: 0.9},
		"initial_access":      {Stage: core.StageInitialAccess, Weight: 1.0},
		"phishing_attachment": {Stage: core.StageInitialAccess, Weight: 0.9},
		"exec":                {Stage: core.StageExecution, Weight: 1.0},
		"suspicious_process":  {Stage: core.StageExecution, Weight: 0.9},
		"script_interpreter":  {Stage: core.StageExecution, Weight: 0.8},
		"autorun_registry":    {Stage: core.StagePersistence, Weight: 1.0},
		"scheduled_task":      {Stage: core.StagePersistence, Weight: 0.9},
		"token_manipulation":  {Stage: core.StagePrivilegeEscalation, Weight: 1.0},
		"uac_bypass":          {Stage: core.StagePrivilegeEscalation, Weight: 0.9},
		"log_clearing":        {Stage: core.StageDefenseEvasion, Weight: 1.0},
		"av_tamper":           {Stage: core.StageDefenseEvasion, Weight: 1.0},
		"credential_dump":     {Stage: core.StageCredentialAccess, Weight: 1.0},
		"network_enum":        {Stage: core.StageDiscovery, Weight: 0.9},
		"share_enum":          {Stage: core.StageDiscovery, Weight: 0.9},
		"lateral_smb":         {Stage: core.StageLateralMovement, Weight: 1.0},
		"remote_service":      {Stage: core.StageLateralMovement, Weight: 0.9},
		"staging_archive":     {Stage: core.StageCollection, Weight: 1.0},
		"c2_beacon":           {Stage: core.StageCommandAndControl, Weight: 1.0},
		"dns_tunnel":          {Stage: core.StageCommandAndControl, Weight: 0.9},
		"exfil_transfer":      {Stage: core.StageExfiltration, Weight: 1.0},
		"mass_file_write":     {Stage: core.StageImpact, Weight: 1.0},
		"entropy_spike":       {Stage: core.StageImpact, Weight: 1.0},
		"shadow_copy_delete":  {Stage: core.StageImpact, Weight: 1.0},
		"ransom_note":         {Stage: core.StageImpact, Weight: 1.0},
	}
}

// LoadProfiles reads a YAML override file and merges it over the defaults.
// Overrides replace the default entry for the same signal type wholesale.
func LoadProfiles(path string) (ProfileSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signal profiles %s: %w", path, err)
	}
	var overrides ProfileSet
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parsing signal profiles %s: %w", path, err)
	}

	set := DefaultProfiles()
	for signalType, p := range overrides {
		if err := p.validate(signalType); err != nil {
			return nil, err
		}
		set[signalType] = p
	}
	return set, nil
}

func (p SignalProfile) validate(signalType string) error {
	if !p.Stage.IsValid() || p.Stage == core.StageUnknown {
		return fmt.Errorf("signal profile %q: stage %q is not a kill-chain stage", signalType, p.Stage)
	}
	if p.Weight <= 0 || p.Weight > 1 {
		return fmt.Errorf("signal profile %q: weight %v outside (0,1]", signalType, p.Weight)
	}
	return nil
}
