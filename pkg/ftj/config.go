package ftj

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/can-lab/finish-the-job/pkg/preproc"
)

// Config carries everything one run needs.
type Config struct {
	// FMRIPrepDir is the root of the fMRIPrep derivatives.
	FMRIPrepDir string
	// Subjects lists the subjects to process. Bare participant
	// numbers are canonicalised to the sub-XXX form.
	Subjects []string
	// Pipeline is the ordered set of processing steps.
	Pipeline *preproc.Spec
	// WorkDir receives the intermediate files and the run manifest.
	// Empty means finish_the_job below the current directory.
	WorkDir string
	// MaxTasks caps how many tasks the engine runs at once. Zero or
	// less picks the number of CPUs.
	MaxTasks int
	// FSLDir is the root of the FSL installation. Empty means the
	// tools are resolved through PATH.
	FSLDir string
	// GraphFile, when set, receives a drawing of the pipeline before
	// anything runs. A relative path lands below WorkDir.
	GraphFile string
	// DryRun stops after discovery and the graph export.
	DryRun bool
	// Verbose turns on the engine's task logging.
	Verbose bool

	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// Clock defaults to the wall clock.
	Clock clockwork.Clock
}

// Validate reports the first missing required field.
func (c *Config) Validate() error {
	if c.FMRIPrepDir == "" {
		return ErrDataDirMustBeSet
	}
	if len(c.Subjects) == 0 {
		return ErrSubjectsMustBeSet
	}
	if c.Pipeline == nil {
		return preproc.ErrPipelineMustBeSet
	}

	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.Default()
}

func (c *Config) clock() clockwork.Clock {
	if c.Clock != nil {
		return c.Clock
	}

	return clockwork.NewRealClock()
}

func (c *Config) workDir() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}

	return "finish_the_job"
}
