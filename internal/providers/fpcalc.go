package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/desertthunder/audiotag/internal/shared"
)

// Fpcalc shells out to the chromaprint fpcalc binary to fingerprint
// audio files.
type Fpcalc struct {
	binary string
}

// NewFpcalc creates a Fingerprinter backed by the fpcalc binary at
// path, defaulting to "fpcalc" on PATH.
func NewFpcalc(path string) *Fpcalc {
	if path == "" {
		path = "fpcalc"
	}
	return &Fpcalc{binary: path}
}

// Available reports whether the configured binary can be resolved.
func (f *Fpcalc) Available() error {
	if _, err := exec.LookPath(f.binary); err != nil {
		return fmt.Errorf("fpcalc binary %q not found: %w", f.binary, err)
	}
	return nil
}

type fpcalcOutput struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

// Fingerprint runs fpcalc against the file and parses its JSON output.
func (f *Fpcalc) Fingerprint(ctx context.Context, path string) (*Fingerprint, error) {
	cmd := exec.CommandContext(ctx, f.binary, "-json", path)

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("fpcalc failed on %s: %s", path, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("fpcalc failed on %s: %w", path, err)
	}

	var parsed fpcalcOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse fpcalc output: %w", err)
	}

	if parsed.Fingerprint == "" {
		return nil, fmt.Errorf("%w: empty fingerprint for %s", shared.ErrIdentificationFailed, path)
	}

	return &Fingerprint{Value: parsed.Fingerprint, Duration: int(parsed.Duration)}, nil
}
