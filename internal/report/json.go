package report

import (
	"encoding/json"
	"io"

	"github.com/ppiankov/ssl-checker/internal/result"
)

// CheckOutput is the JSON envelope for `ssl_checker check --output json`.
// Wraps the report with exit-code metadata without polluting the Report type
// served by the /api/v1/report endpoint.
type CheckOutput struct {
	Report   result.Report `json:"report"`
	ExitCode int           `json:"exitCode"`
}

// WriteJSON serializes a CheckOutput envelope to w.
func WriteJSON(w io.Writer, rep result.Report, exitCode int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(CheckOutput{
		Report:   rep,
		ExitCode: exitCode,
	})
}
