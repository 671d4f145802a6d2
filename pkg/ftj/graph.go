package ftj

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/can-lab/finish-the-job/internal/bids"
	"github.com/can-lab/finish-the-job/internal/engine"
	"github.com/can-lab/finish-the-job/pkg/preproc"
	"github.com/can-lab/finish-the-job/pkg/preproc/drawer"
)

// drawPipelineGraph renders the structure of the plan. Every series
// passes through the same chain, so one unbound template chain stands
// for all of them, framed by pseudo nodes for the input and the final
// output.
func drawPipelineGraph(plan *preproc.Plan, fileName string) error {
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return errors.Wrapf(err, "create graph dir of %s", fileName)
	}

	d, err := drawer.New(fileName)
	if err != nil {
		return err
	}

	if err := d.AddNode("bold", "input"); err != nil {
		return err
	}

	template := engine.NewChain(plan, bids.Image{}, -1)
	for _, node := range template.Nodes {
		class := string(plan.Stages[node.StageIdx].Step.Name)
		if err := d.AddNode(node.Name, class); err != nil {
			return err
		}
	}
	for _, node := range template.Nodes {
		for _, producer := range node.Ins {
			if producer == engine.ChainInput {
				producer = "bold"
			}
			if err := d.AddLink(producer, node.Name); err != nil {
				return err
			}
		}
	}

	if err := d.AddNode("out", "output"); err != nil {
		return err
	}
	if err := d.AddLink(template.Tail().Name, "out"); err != nil {
		return err
	}

	return d.Draw()
}
