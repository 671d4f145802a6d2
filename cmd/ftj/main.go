// Package main is the entry point for the ftj binary. It finishes the
// preprocessing of fMRIPrep outputs with spatial smoothing, temporal
// filtering and timecourse normalization.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/can-lab/finish-the-job/pkg/ftj"
	"github.com/can-lab/finish-the-job/pkg/preproc"
	"github.com/can-lab/finish-the-job/pkg/preproc/report"
)

const version = "0.2.0"

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type options struct {
	pipelineFile string
	subjects     []string
	workDir      string
	maxTasks     int
	fslDir       string
	graphFile    string
	dryRun       bool
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "ftj FMRIPREP_DIR",
		Short: "Finish the preprocessing of fMRIPrep outputs",
		Long: `ftj finishes the job after fMRIPrep: it applies spatial smoothing,
temporal filtering and timecourse normalization to the preprocessed
bold series of the given subjects, in the order of the pipeline file.

The pipeline file is a YAML mapping executed top to bottom:

  spatial_smoothing: 5
  temporal_filtering: [100, null]
  timecourse_normalization: Zscore

Smoothing takes the FWHM in millimetres, filtering the highpass and
lowpass cutoffs in seconds (null disables a side) and normalization
one of Zscore or PSC. Processed files land next to their inputs, with
the pipeline parameters appended to the desc entity of the file name.

FSL has to be installed; its tools are resolved through --fsl-dir,
$FSLDIR or PATH.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0])
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.pipelineFile, "pipeline", "p", "pipeline.yaml", "YAML file with the ordered processing steps")
	flags.StringSliceVarP(&opts.subjects, "subject", "s", nil, "subject to process, repeatable (participant number or sub-XXX label)")
	flags.StringVarP(&opts.workDir, "work-dir", "w", "finish_the_job", "directory for intermediate files and the run manifest")
	flags.IntVar(&opts.maxTasks, "max-tasks", 0, "max concurrent tasks, 0 means the number of CPUs")
	flags.StringVar(&opts.fslDir, "fsl-dir", "", "FSL installation root (default $FSLDIR)")
	flags.StringVar(&opts.graphFile, "graph-file", "graph_colored.dot", "pipeline graph file (.dot, .gv or .svg), relative paths land in the work dir")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "discover images and draw the graph, but do not process")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	return rootCmd
}

func run(cmd *cobra.Command, opts *options, fmriprepDir string) error {
	log := newLogger(opts.verbose)
	slog.SetDefault(log)

	spec, err := loadPipeline(opts.pipelineFile)
	if err != nil {
		return err
	}

	fslDir := opts.fslDir
	if fslDir == "" {
		fslDir = os.Getenv("FSLDIR")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := ftj.Run(ctx, &ftj.Config{
		FMRIPrepDir: fmriprepDir,
		Subjects:    opts.subjects,
		Pipeline:    spec,
		WorkDir:     opts.workDir,
		MaxTasks:    opts.maxTasks,
		FSLDir:      fslDir,
		GraphFile:   opts.graphFile,
		DryRun:      opts.dryRun,
		Verbose:     opts.verbose,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	printReport(os.Stdout, rep)

	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func loadPipeline(fileName string) (*preproc.Spec, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}

	var spec preproc.Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse pipeline file %s: %w", fileName, err)
	}

	return &spec, nil
}

func printReport(w io.Writer, rep *report.Report) {
	fmt.Fprintln(w, "Pipeline:")
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"#", "Step", "Parameters", "Token"})
	for i, st := range rep.Pipeline {
		table.Append([]string{strconv.Itoa(i + 1), st.Name, st.Params, st.Token})
	}
	table.Render()

	fmt.Fprintln(w, "Subjects:")
	table = tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Subject", "Images"})
	for _, s := range rep.Subjects {
		table.Append([]string{s.Subject, strconv.Itoa(s.Images)})
	}
	table.Render()

	if len(rep.Phases) > 0 {
		fmt.Fprintln(w, "Phases:")
		table = tablewriter.NewWriter(w)
		table.SetAutoFormatHeaders(false)
		table.SetHeader([]string{"Phase", "Elapsed"})
		for _, p := range rep.Phases {
			table.Append([]string{p.Name, report.Round(p.Elapsed).String()})
		}
		table.Render()
	}

	what := "wrote"
	if rep.DryRun {
		what = "would write"
	}
	fmt.Fprintf(w, "Run %s finished in %s, %s %d output(s)\n",
		rep.RunID, report.Round(rep.Elapsed), what, len(rep.Outputs))
}
