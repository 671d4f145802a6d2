package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/can-lab/finish-the-job/internal/bids"
	"github.com/can-lab/finish-the-job/internal/fsl"
	"github.com/can-lab/finish-the-job/pkg/preproc"
)

func assemble(t *testing.T, steps ...preproc.Step) *preproc.Plan {
	t.Helper()
	spec, err := preproc.NewSpec(steps...)
	require.NoError(t, err)
	plan, err := preproc.Assemble(spec)
	require.NoError(t, err)

	return plan
}

func testImage() bids.Image {
	return bids.Image{
		Bold: "/data/sub-001/ses-01/func/sub-001_ses-01_task-rest_desc-preproc_bold.nii.gz",
		Mask: "/data/sub-001/ses-01/func/sub-001_ses-01_task-rest_desc-brain_mask.nii.gz",
	}
}

func node(t *testing.T, c *Chain, name string) *Node {
	t.Helper()
	for _, n := range c.Nodes {
		if n.Name == name {
			return n
		}
	}
	t.Fatalf("node %s not found", name)

	return nil
}

func TestNewChainTopology(t *testing.T) {
	t.Parallel()
	plan := assemble(t, preproc.Smooth(5), preproc.Filter(100, preproc.NoCutoff), preproc.Normalize(preproc.Zscore))
	chain := NewChain(plan, testImage(), 0)

	require.Len(t, chain.Nodes, 9)
	require.NotNil(t, chain.Tail())
	assert.Equal(t, "f000.03_timecourse_normalization.apply", chain.Tail().Name)

	susan := node(t, chain, "f000.01_spatial_smoothing.susan")
	assert.Equal(t, map[string]string{
		"in":   ChainInput,
		"usan": "f000.01_spatial_smoothing.usan",
	}, susan.Ins)
	assert.Equal(t, "sub-001_ses-01_task-rest_desc-preproc_bold/01_spatial_smoothing_susan.nii.gz", susan.Out)

	usan := node(t, chain, "f000.01_spatial_smoothing.usan")
	assert.Equal(t, map[string]string{"in": "f000.01_spatial_smoothing.mask"}, usan.Ins)

	// The second stage consumes the image of the first.
	mean := node(t, chain, "f000.02_temporal_filtering.mean")
	assert.Equal(t, map[string]string{"in": "f000.01_spatial_smoothing.susan"}, mean.Ins)

	addmean := node(t, chain, "f000.02_temporal_filtering.addmean")
	assert.Equal(t, map[string]string{
		"in":   "f000.02_temporal_filtering.bptf",
		"mean": "f000.02_temporal_filtering.mean",
	}, addmean.Ins)

	apply := node(t, chain, "f000.03_timecourse_normalization.apply")
	assert.Equal(t, map[string]string{
		"in":   "f000.02_temporal_filtering.addmean",
		"mean": "f000.03_timecourse_normalization.tmean",
		"std":  "f000.03_timecourse_normalization.tstd",
	}, apply.Ins)
}

func TestNewChainStageOrderFollowsPlan(t *testing.T) {
	t.Parallel()
	plan := assemble(t, preproc.Normalize(preproc.Zscore), preproc.Smooth(5))
	chain := NewChain(plan, testImage(), 3)

	require.Len(t, chain.Nodes, 6)
	assert.Equal(t, "f003.01_timecourse_normalization.tmean", chain.Nodes[0].Name)
	assert.Equal(t, "f003.02_spatial_smoothing.susan", chain.Tail().Name)

	mask := node(t, chain, "f003.02_spatial_smoothing.mask")
	assert.Equal(t, map[string]string{"in": "f003.01_timecourse_normalization.apply"}, mask.Ins)
}

func TestNewChainTemplateNames(t *testing.T) {
	t.Parallel()
	plan := assemble(t, preproc.Smooth(5))
	chain := NewChain(plan, bids.Image{}, -1)

	require.Len(t, chain.Nodes, 3)
	assert.Equal(t, "01_spatial_smoothing.mask", chain.Nodes[0].Name)
	assert.Equal(t, "01_spatial_smoothing.usan", chain.Nodes[1].Name)
	assert.Equal(t, "01_spatial_smoothing.susan", chain.Nodes[2].Name)
}

func TestChainBind(t *testing.T) {
	t.Parallel()
	plan := assemble(t, preproc.Smooth(5), preproc.Filter(100, preproc.NoCutoff), preproc.Normalize(preproc.Zscore))
	img := testImage()
	chain := NewChain(plan, img, 0)

	runner := &fsl.Runner{Dir: "/opt/fsl"}
	chain.Bind(runner, fsl.Probes{TR: 2, Median: 1000})

	mask := node(t, chain, "f000.01_spatial_smoothing.mask")
	assert.Equal(t,
		"FSLOUTPUTTYPE=NIFTI_GZ /opt/fsl/bin/fslmaths "+img.Bold+" -mas "+img.Mask+" {o:out}",
		mask.Cmd)
	assert.Empty(t, mask.Ins, "first stage reads the series directly")

	susan := node(t, chain, "f000.01_spatial_smoothing.susan")
	assert.Equal(t,
		"FSLOUTPUTTYPE=NIFTI_GZ /opt/fsl/bin/susan "+img.Bold+" 750.0000000000 2.1233226081 3 1 1 {i:usan} 750.0000000000 {o:out}",
		susan.Cmd)
	assert.Equal(t, map[string]string{"usan": "f000.01_spatial_smoothing.usan"}, susan.Ins)

	bptf := node(t, chain, "f000.02_temporal_filtering.bptf")
	assert.Equal(t,
		"FSLOUTPUTTYPE=NIFTI_GZ /opt/fsl/bin/fslmaths {i:in} -bptf 25.0000000000 -1 {o:out} -odt int",
		bptf.Cmd)

	addmean := node(t, chain, "f000.02_temporal_filtering.addmean")
	assert.Equal(t,
		"FSLOUTPUTTYPE=NIFTI_GZ /opt/fsl/bin/fslmaths {i:in} -add {i:mean} {o:out} -odt int",
		addmean.Cmd)

	apply := node(t, chain, "f000.03_timecourse_normalization.apply")
	assert.Equal(t,
		"FSLOUTPUTTYPE=NIFTI_GZ /opt/fsl/bin/fslmaths {i:in} -sub {i:mean} -div {i:std} -mas "+img.Mask+" {o:out}",
		apply.Cmd)
}

func TestChainBindPSC(t *testing.T) {
	t.Parallel()
	plan := assemble(t, preproc.Normalize(preproc.PSC))
	img := testImage()
	chain := NewChain(plan, img, 0)

	chain.Bind(&fsl.Runner{}, fsl.Probes{})

	require.Len(t, chain.Nodes, 2)
	apply := node(t, chain, "f000.01_timecourse_normalization.apply")
	assert.Equal(t,
		"FSLOUTPUTTYPE=NIFTI_GZ fslmaths "+img.Bold+" -sub {i:mean} -div {i:mean} -mul 100 -mas "+img.Mask+" {o:out}",
		apply.Cmd)
	assert.Equal(t, map[string]string{"mean": "f000.01_timecourse_normalization.tmean"}, apply.Ins)
}
