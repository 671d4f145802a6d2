// Package engine expands assembled plans into workflow tasks and hands
// them to the scientific workflow engine.
package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/can-lab/finish-the-job/internal/bids"
	"github.com/can-lab/finish-the-job/internal/fsl"
	"github.com/can-lab/finish-the-job/pkg/preproc"
)

// ChainInput marks the port that consumes the running image of a chain.
// Nodes of the first stage read the bold series itself, so the marker is
// replaced by the file path when commands are bound.
const ChainInput = "@in"

// Kind tells which toolkit invocation a node stands for.
type Kind int

const (
	KindMaskApply Kind = iota
	KindUsan
	KindSusan
	KindFilterMean
	KindFilter
	KindAddMean
	KindNormMean
	KindNormStd
	KindNormApply
)

// Node is a single toolkit invocation. Ins maps port names to producer
// nodes; Cmd stays empty until Bind fills in the per-image values.
type Node struct {
	Name     string
	Kind     Kind
	StageIdx int
	Out      string
	Ins      map[string]string
	Cmd      string
}

// Chain is the sequence of nodes that carries one bold series through
// every stage of a plan. Within a stage the nodes fan out and meet
// again, between stages the image of the previous stage is consumed.
type Chain struct {
	Image bids.Image
	Nodes []*Node

	plan *preproc.Plan
	tail *Node
}

// Tail returns the node producing the final image of the chain.
func (c *Chain) Tail() *Node { return c.tail }

// NewChain expands a plan into the nodes that process one bold series.
// The index namespaces node names within a workflow; a negative index
// leaves them bare, which is used to draw the pipeline structure.
func NewChain(plan *preproc.Plan, img bids.Image, index int) *Chain {
	c := &Chain{Image: img, plan: plan}

	prefix := ""
	if index >= 0 {
		prefix = fmt.Sprintf("f%03d.", index)
	}
	outDir := strings.TrimSuffix(filepath.Base(img.Bold), ".nii.gz")

	last := ChainInput
	for i, stage := range plan.Stages {
		label := fmt.Sprintf("%02d_%s", i+1, stage.Step.Name)
		add := func(op string, kind Kind, ins map[string]string) *Node {
			n := &Node{
				Name:     prefix + label + "." + op,
				Kind:     kind,
				StageIdx: i,
				Out:      filepath.Join(outDir, label+"_"+op+".nii.gz"),
				Ins:      ins,
			}
			c.Nodes = append(c.Nodes, n)

			return n
		}

		switch stage.Step.Name {
		case preproc.SpatialSmoothing:
			mask := add("mask", KindMaskApply, map[string]string{"in": last})
			usan := add("usan", KindUsan, map[string]string{"in": mask.Name})
			c.tail = add("susan", KindSusan, map[string]string{"in": last, "usan": usan.Name})
		case preproc.TemporalFiltering:
			mean := add("mean", KindFilterMean, map[string]string{"in": last})
			filt := add("bptf", KindFilter, map[string]string{"in": last})
			c.tail = add("addmean", KindAddMean, map[string]string{"in": filt.Name, "mean": mean.Name})
		case preproc.TimecourseNormalization:
			mean := add("tmean", KindNormMean, map[string]string{"in": last})
			ins := map[string]string{"in": last, "mean": mean.Name}
			if stage.Step.Method == preproc.Zscore {
				std := add("tstd", KindNormStd, map[string]string{"in": last})
				ins["std"] = std.Name
			}
			c.tail = add("apply", KindNormApply, ins)
		}
		last = c.tail.Name
	}

	return c
}

// Bind fills in the command of every node. The runner resolves tool
// paths and probes carries the values read from this image up front.
func (c *Chain) Bind(runner *fsl.Runner, probes fsl.Probes) {
	for _, n := range c.Nodes {
		step := c.plan.Stages[n.StageIdx].Step

		in := "{i:in}"
		if n.Ins["in"] == ChainInput {
			in = c.Image.Bold
			delete(n.Ins, "in")
		}

		var cmd string
		switch n.Kind {
		case KindMaskApply:
			cmd = fmt.Sprintf("%s %s -mas %s {o:out}", runner.Bin("fslmaths"), in, c.Image.Mask)
		case KindUsan:
			cmd = fmt.Sprintf("%s %s -Tmean {o:out}", runner.Bin("fslmaths"), in)
		case KindSusan:
			bt := fsl.FormatValue(fsl.BrightnessThreshold(probes.Median))
			sigma := fsl.FormatValue(fsl.SusanSigma(step.FWHM))
			cmd = fmt.Sprintf("%s %s %s %s 3 1 1 {i:usan} %s {o:out}", runner.Bin("susan"), in, bt, sigma, bt)
		case KindFilterMean:
			cmd = fmt.Sprintf("%s %s -Tmean {o:out} -odt int", runner.Bin("fslmaths"), in)
		case KindFilter:
			args := fsl.TemporalFilterArgs(step.Highpass, step.Lowpass, probes.TR)
			cmd = fmt.Sprintf("%s %s %s {o:out} -odt int", runner.Bin("fslmaths"), in, args)
		case KindAddMean:
			cmd = fmt.Sprintf("%s %s -add {i:mean} {o:out} -odt int", runner.Bin("fslmaths"), in)
		case KindNormMean:
			cmd = fmt.Sprintf("%s %s -Tmean {o:out}", runner.Bin("fslmaths"), in)
		case KindNormStd:
			cmd = fmt.Sprintf("%s %s -Tstd {o:out}", runner.Bin("fslmaths"), in)
		case KindNormApply:
			if step.Method == preproc.PSC {
				cmd = fmt.Sprintf("%s %s -sub {i:mean} -div {i:mean} -mul 100 -mas %s {o:out}", runner.Bin("fslmaths"), in, c.Image.Mask)
			} else {
				cmd = fmt.Sprintf("%s %s -sub {i:mean} -div {i:std} -mas %s {o:out}", runner.Bin("fslmaths"), in, c.Image.Mask)
			}
		}
		// The engine shells every task out through bash, so the output
		// format is pinned per command.
		n.Cmd = "FSLOUTPUTTYPE=NIFTI_GZ " + cmd
	}
}
