// package formatter renders job results to the formats the CLI writes
// out: a JSON manifest, CSV, and plain text summaries.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/audiotag/internal/jobs"
	"github.com/desertthunder/audiotag/internal/models"
	"github.com/desertthunder/audiotag/internal/shared"
)

// ManifestName is the file written next to the organized output.
const ManifestName = "manifest.json"

// ResultToJSON renders a processing result as a pretty JSON manifest.
func ResultToJSON(result *jobs.Result) ([]byte, error) {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return data, nil
}

// ResultToCSV converts a processing result to CSV with columns:
// Source, Status, Output, Error.
func ResultToCSV(result *jobs.Result) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Source", "Status", "Output", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, f := range result.Files {
		record := []string{f.Source, string(f.Status), f.Output, f.Error}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResultToText converts a processing result to a plain text summary.
func ResultToText(result *jobs.Result) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Processed: %d\n", result.Total))
	buf.WriteString(fmt.Sprintf("Succeeded: %d\n", result.Succeeded))
	buf.WriteString(fmt.Sprintf("Partial:   %d\n", result.Partial))
	buf.WriteString(fmt.Sprintf("Failed:    %d\n\n", result.Failed))

	for _, f := range result.Files {
		line := fmt.Sprintf("[%s] %s", f.Status, f.Source)
		if f.Status != models.FileFailed && f.Output != "" {
			line += " -> " + f.Output
		}
		if f.Error != "" {
			line += " (" + f.Error + ")"
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes()
}

// WriteManifest writes the JSON manifest into the run's output
// directory and returns its path.
func WriteManifest(result *jobs.Result) (string, error) {
	data, err := ResultToJSON(result)
	if err != nil {
		return "", err
	}

	path := filepath.Join(result.OutputDir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	return path, nil
}
