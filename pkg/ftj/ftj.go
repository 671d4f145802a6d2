// Package ftj finishes the preprocessing of fMRIPrep outputs. It
// discovers the preprocessed bold series of the given subjects, runs
// every series through the configured pipeline and writes the results
// back next to their inputs.
package ftj

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/can-lab/finish-the-job/internal/bids"
	"github.com/can-lab/finish-the-job/internal/engine"
	"github.com/can-lab/finish-the-job/internal/fsl"
	"github.com/can-lab/finish-the-job/internal/workers"
	"github.com/can-lab/finish-the-job/pkg/preproc"
	"github.com/can-lab/finish-the-job/pkg/preproc/report"
)

// manifestName is the run manifest written into the work directory.
const manifestName = "ftj_run.json"

// job carries one bold series through a run.
type job struct {
	image  bids.Image
	chain  *engine.Chain
	output string
}

// Run executes the configured pipeline over every discovered bold
// series and returns the run manifest. Failing fast is the rule: any
// missing mask, unreadable header or malformed pipeline aborts the run
// before processing starts.
func Run(ctx context.Context, cfg *Config) (*report.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	plan, err := preproc.Assemble(cfg.Pipeline)
	if err != nil {
		return nil, err
	}

	log := cfg.logger()
	rec := report.NewRecorder(cfg.clock())
	rec.SetDryRun(cfg.DryRun)

	stages := make([]report.StageInfo, len(plan.Stages))
	for i, stage := range plan.Stages {
		stages[i] = report.StageInfo{Name: string(stage.Step.Name), Params: stage.Describe(), Token: stage.Token}
	}
	rec.SetPlan(stages, plan.Token)
	log.Info("assembled pipeline", "steps", len(plan.Stages), "token", plan.Token)

	workDir, err := filepath.Abs(cfg.workDir())
	if err != nil {
		return nil, errors.Wrapf(err, "resolve work dir %s", cfg.workDir())
	}

	stop := rec.Phase("discover")
	jobs, counts, err := collect(log, plan, cfg)
	stop()
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		rec.AddSubject(c.Subject, c.Images)
	}

	for i := range jobs {
		jobs[i].chain = engine.NewChain(plan, jobs[i].image, i)
	}

	if cfg.GraphFile != "" {
		graphFile := cfg.GraphFile
		if !filepath.IsAbs(graphFile) {
			graphFile = filepath.Join(workDir, graphFile)
		}
		if err := drawPipelineGraph(plan, graphFile); err != nil {
			return nil, err
		}
		log.Info("wrote pipeline graph", "file", graphFile)
	}

	if cfg.DryRun {
		for _, j := range jobs {
			rec.AddOutput(j.output)
			log.Info("would write", "output", j.output)
		}
		log.Info("dry run, stopping before processing")

		return rec.Finish(), nil
	}

	runner := &fsl.Runner{Dir: cfg.FSLDir}

	stop = rec.Phase("probe")
	totalNodes := 0
	for _, j := range jobs {
		probes, err := probe(ctx, runner, plan, j.image)
		if err != nil {
			return nil, err
		}
		j.chain.Bind(runner, probes)
		totalNodes += len(j.chain.Nodes)
	}
	stop()

	chains := make([]*engine.Chain, len(jobs))
	for i := range jobs {
		chains[i] = jobs[i].chain
	}

	log.Info("processing", "images", len(jobs), "tasks", totalNodes)
	stop = rec.Phase("process")
	err = engine.Run(ctx, engine.Config{
		Chains:   chains,
		MaxTasks: workers.Clamp(cfg.MaxTasks, totalNodes),
		WorkDir:  workDir,
		Verbose:  cfg.Verbose,
	})
	stop()
	if err != nil {
		return nil, err
	}

	stop = rec.Phase("export")
	for _, j := range jobs {
		src := filepath.Join(workDir, j.chain.Tail().Out)
		if err := copyFile(src, j.output); err != nil {
			return nil, err
		}
		rec.AddOutput(j.output)
		log.Info("wrote output", "file", j.output)
	}
	stop()

	rep := rec.Finish()
	if err := rep.WriteFile(filepath.Join(workDir, manifestName)); err != nil {
		log.Warn("could not write run manifest", "err", err)
	}

	return rep, nil
}

// collect finds the bold series of every subject together with their
// masks and output names. The mask lookup only happens when the plan
// needs one, so a filter-only pipeline runs on mask-less datasets.
func collect(log *slog.Logger, plan *preproc.Plan, cfg *Config) ([]job, []report.SubjectCount, error) {
	found, err := bids.Discover(cfg.FMRIPrepDir, cfg.Subjects)
	if err != nil {
		return nil, nil, err
	}

	var jobs []job
	counts := make([]report.SubjectCount, 0, len(found))
	for _, subject := range found {
		if len(subject.Bolds) == 0 {
			log.Warn("no preprocessed bold images", "subject", subject.Subject)
		}
		counts = append(counts, report.SubjectCount{Subject: subject.Subject, Images: len(subject.Bolds)})

		for _, bold := range subject.Bolds {
			img := bids.Image{Bold: bold}
			if plan.NeedsMask() {
				mask, err := bids.MaskPath(bold)
				if err != nil {
					return nil, nil, err
				}
				img.Mask = mask
			}

			output, err := bids.OutputName(bold, plan.Token)
			if err != nil {
				return nil, nil, err
			}
			jobs = append(jobs, job{image: img, output: output})
		}
	}

	if len(jobs) == 0 {
		return nil, nil, errors.Wrap(ErrNoImages, cfg.FMRIPrepDir)
	}

	return jobs, counts, nil
}

// probe reads the per-image values the plan needs before the commands
// can be built.
func probe(ctx context.Context, runner *fsl.Runner, plan *preproc.Plan, img bids.Image) (fsl.Probes, error) {
	var probes fsl.Probes
	if plan.NeedsTR() {
		tr, err := runner.RepetitionTime(ctx, img.Bold)
		if err != nil {
			return probes, err
		}
		probes.TR = tr
	}
	if plan.NeedsMedian() {
		median, err := runner.MedianIntensity(ctx, img.Bold, img.Mask)
		if err != nil {
			return probes, err
		}
		probes.Median = median
	}

	return probes, nil
}
