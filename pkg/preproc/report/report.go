// Package report collects what a run did into a manifest that is
// written next to the intermediate files.
package report

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// StageInfo describes one pipeline stage as it was assembled.
type StageInfo struct {
	Name   string `json:"name"`
	Params string `json:"params"`
	Token  string `json:"token"`
}

// SubjectCount counts the bold series found for one subject.
type SubjectCount struct {
	Subject string `json:"subject"`
	Images  int    `json:"images"`
}

// Phase is one timed part of a run.
type Phase struct {
	Name    string        `json:"name"`
	Elapsed time.Duration `json:"elapsed"`
}

// Report is the manifest of a single run. Durations are nanoseconds.
type Report struct {
	RunID    string         `json:"run_id"`
	Started  time.Time      `json:"started"`
	Pipeline []StageInfo    `json:"pipeline"`
	Token    string         `json:"token"`
	DryRun   bool           `json:"dry_run"`
	Subjects []SubjectCount `json:"subjects"`
	Outputs  []string       `json:"outputs"`
	Phases   []Phase        `json:"phases"`
	Elapsed  time.Duration  `json:"elapsed"`
}

// WriteFile writes the report as indented JSON.
func (r *Report) WriteFile(fileName string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}

	err = os.WriteFile(fileName, data, 0o644)
	if err != nil {
		return errors.Wrapf(err, "write report %s", fileName)
	}

	return nil
}

// Recorder builds a report while a run progresses. It is safe for
// concurrent use.
type Recorder struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	started time.Time
	report  Report
}

// NewRecorder starts a report with a fresh run id.
func NewRecorder(clock clockwork.Clock) *Recorder {
	now := clock.Now()

	return &Recorder{
		clock:   clock,
		started: now,
		report: Report{
			RunID:   uuid.NewString(),
			Started: now,
		},
	}
}

// SetPlan records the assembled stages and the filename token.
func (r *Recorder) SetPlan(stages []StageInfo, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Pipeline = stages
	r.report.Token = token
}

// SetDryRun marks the run as a dry run.
func (r *Recorder) SetDryRun(dryRun bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.DryRun = dryRun
}

// AddSubject records how many bold series a subject contributed.
func (r *Recorder) AddSubject(subject string, images int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Subjects = append(r.report.Subjects, SubjectCount{Subject: subject, Images: images})
}

// AddOutput records a written output file.
func (r *Recorder) AddOutput(fileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Outputs = append(r.report.Outputs, fileName)
}

// Phase starts a timed phase and returns the function stopping it.
func (r *Recorder) Phase(name string) func() {
	start := r.clock.Now()

	return func() {
		elapsed := r.clock.Since(start)
		r.mu.Lock()
		defer r.mu.Unlock()
		r.report.Phases = append(r.report.Phases, Phase{Name: name, Elapsed: elapsed})
	}
}

// Finish stamps the total elapsed time and returns the report.
func (r *Recorder) Finish() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Elapsed = r.clock.Since(r.started)

	return &r.report
}

// Round trims a duration for display.
func Round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		return d.Round(time.Second)
	case d > time.Millisecond:
		return d.Round(time.Millisecond)
	case d > time.Microsecond:
		return d.Round(time.Microsecond)
	}

	return d
}
