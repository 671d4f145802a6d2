package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/scipipe/scipipe"
)

var ErrChainNotBound = errors.New("chain must be bound before running")

// Config wires a set of bound chains to the workflow engine.
type Config struct {
	Chains   []*Chain
	MaxTasks int
	WorkDir  string
	Verbose  bool
}

// Run hands the chains to the workflow engine and blocks until every
// task finished. The engine owns all scheduling: it runs independent
// tasks concurrently up to MaxTasks, reuses outputs that already exist
// from an earlier run and reports task failures itself. Intermediate
// files land below the work directory, which the engine resolves
// relative paths against.
func Run(ctx context.Context, cfg Config) error {
	if len(cfg.Chains) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "run workflow")
	}

	if cfg.Verbose {
		scipipe.InitLogInfo()
	} else {
		scipipe.InitLogWarning()
	}

	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return errors.Wrapf(err, "create work dir %s", cfg.WorkDir)
	}
	prev, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "get working dir")
	}
	if err := os.Chdir(cfg.WorkDir); err != nil {
		return errors.Wrapf(err, "enter work dir %s", cfg.WorkDir)
	}
	defer func() { _ = os.Chdir(prev) }()

	wf := scipipe.NewWorkflow("finish_the_job", cfg.MaxTasks)
	procs := make(map[string]*scipipe.Process)
	for _, chain := range cfg.Chains {
		for _, node := range chain.Nodes {
			if node.Cmd == "" {
				return errors.Wrap(ErrChainNotBound, node.Name)
			}
			if err := os.MkdirAll(filepath.Dir(node.Out), 0o755); err != nil {
				return errors.Wrapf(err, "create output dir of %s", node.Name)
			}
			proc := wf.NewProc(node.Name, node.Cmd)
			proc.SetOut("out", node.Out)
			procs[node.Name] = proc
		}
	}
	for _, chain := range cfg.Chains {
		for _, node := range chain.Nodes {
			for port, producer := range node.Ins {
				procs[node.Name].In(port).From(procs[producer].Out("out"))
			}
		}
	}

	wf.Run()

	return errors.Wrap(ctx.Err(), "run workflow")
}
