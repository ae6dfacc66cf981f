package export

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/ekglab/ekgstore/pkg/errors"
)

// Report summarizes one batch run. It is written alongside the extraction
// results so a failed chart in a large archive can be found without
// re-reading terminal output.
type Report struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Charts     []ReportEntry `json:"charts"`
}

// ReportEntry records the outcome for one input chart.
type ReportEntry struct {
	Input   string `json:"input"`
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Leads   int    `json:"leads,omitempty"`
	Samples int    `json:"samples,omitempty"`
	Cached  bool   `json:"cached,omitempty"`
}

// Entry statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// WriteReport writes the run report as run_<id>.json under the output
// directory and returns the written path.
func (w Writer) WriteReport(report Report) (string, error) {
	path := filepath.Join(w.Dir, "run_"+report.RunID+".json")
	f, err := w.create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return path, nil
}
