package providers

import (
	"github.com/desertthunder/audiotag/internal/paths"
	"github.com/desertthunder/audiotag/internal/shared"
)

// Check statuses reported by ValidateSetup.
const (
	CheckOK      = "ok"
	CheckMissing = "missing"
	CheckError   = "error"
)

// SetupCheck is one line of the setup validation report.
type SetupCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ValidateSetup inspects the configuration and local environment and
// reports what the pipeline has to work with. Missing optional pieces
// degrade the pipeline rather than block it, so every check runs.
func ValidateSetup(cfg *shared.Config) []SetupCheck {
	checks := make([]SetupCheck, 0, 4)

	fpcalc := SetupCheck{Name: "fpcalc", Status: CheckOK}
	if err := NewFpcalc(cfg.Providers.FpcalcPath).Available(); err != nil {
		fpcalc.Status = CheckMissing
		fpcalc.Detail = err.Error()
	}
	checks = append(checks, fpcalc)

	acoustid := SetupCheck{Name: "acoustid_api_key", Status: CheckOK}
	if cfg.Providers.AcoustIDAPIKey == "" {
		acoustid.Status = CheckMissing
		acoustid.Detail = "set ACOUSTID_API_KEY or providers.acoustid_api_key"
	}
	checks = append(checks, acoustid)

	genius := SetupCheck{Name: "genius_api_key", Status: CheckOK}
	if cfg.Providers.GeniusAPIKey == "" {
		genius.Status = CheckMissing
		genius.Detail = "set GENIUS_API_KEY or providers.genius_api_key; genius lyrics disabled"
	}
	checks = append(checks, genius)

	pattern := SetupCheck{Name: "output_pattern", Status: CheckOK, Detail: cfg.Processing.OutputPattern}
	if _, err := paths.Parse(cfg.Processing.OutputPattern); err != nil {
		pattern.Status = CheckError
		pattern.Detail = err.Error()
	}
	checks = append(checks, pattern)

	return checks
}

// Healthy reports whether the checks allow identification to run at
// all: fpcalc and the AcoustID key are required, the rest degrade.
func Healthy(checks []SetupCheck) bool {
	for _, c := range checks {
		if c.Status == CheckOK {
			continue
		}
		if c.Name == "fpcalc" || c.Name == "acoustid_api_key" || c.Status == CheckError {
			return false
		}
	}
	return true
}
