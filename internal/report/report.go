// Package report writes the JSON run report and owns the progress bars
// shown during long loops.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/galleryforge/artcrawl/internal/logging"
	"github.com/galleryforge/artcrawl/internal/models"
)

// RunReport is the end-of-run summary persisted next to the dataset. It is
// written even on interrupt, so a truncated run still documents itself.
type RunReport struct {
	RunID        string          `json:"run_id"`
	Mode         string          `json:"mode"`
	BaseURL      string          `json:"base_url"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	Interrupted  bool            `json:"interrupted"`
	Stats        models.RunStats `json:"stats"`
	ClassCounts  map[string]int  `json:"class_counts,omitempty"`
	ManifestPath string          `json:"manifest_path"`
	OutputDir    string          `json:"output_dir"`
}

// NewRunReport stamps a fresh report with a run ID and start time.
func NewRunReport(mode, baseURL, outputDir string) *RunReport {
	return &RunReport{
		RunID:     uuid.New().String(),
		Mode:      mode,
		BaseURL:   baseURL,
		OutputDir: outputDir,
		StartedAt: time.Now(),
	}
}

// Write finalizes and persists the report as run_report.json under the
// output directory.
func (r *RunReport) Write() error {
	r.FinishedAt = time.Now()
	r.Stats.Duration = r.FinishedAt.Sub(r.StartedAt).Seconds()

	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(r.OutputDir, "run_report.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logging.Infof("run report written: %s", path)
	return nil
}

// NewProgressBar returns the progress bar style used for artist and work
// loops.
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
