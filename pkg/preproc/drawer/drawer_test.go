package drawer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	d, err := New("graph.dot")
	require.NoError(t, err)
	assert.IsType(t, &DOTDrawer{}, d)

	d, err = New("graph.gv")
	require.NoError(t, err)
	assert.IsType(t, &DOTDrawer{}, d)

	d, err = New("graph.SVG")
	require.NoError(t, err)
	assert.IsType(t, &SVGDrawer{}, d)

	_, err = New("graph.png")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// fill populates a drawer with a small smoothing pipeline. Links are
// added out of order on purpose.
func fill(t *testing.T, d Drawer) {
	t.Helper()
	require.NoError(t, d.AddNode("bold", "input"))
	require.NoError(t, d.AddNode("mask", "smooth"))
	require.NoError(t, d.AddNode("usan", "smooth"))
	require.NoError(t, d.AddNode("susan", "smooth"))
	require.NoError(t, d.AddNode("out", "output"))

	require.NoError(t, d.AddLink("usan", "susan"))
	require.NoError(t, d.AddLink("bold", "mask"))
	require.NoError(t, d.AddLink("mask", "usan"))
	require.NoError(t, d.AddLink("bold", "susan"))
	require.NoError(t, d.AddLink("susan", "out"))
}

func TestDOTDrawer(t *testing.T) {
	t.Parallel()
	fileName := filepath.Join(t.TempDir(), "graph.dot")

	d := NewDOT(fileName)
	fill(t, d)
	require.NoError(t, d.Draw())

	data, err := os.ReadFile(fileName)
	require.NoError(t, err)
	out := strings.ToLower(string(data))

	assert.True(t, strings.HasPrefix(out, "strict digraph {"))
	assert.Contains(t, out, `"bold" -> "mask";`)
	assert.Contains(t, out, `"bold" -> "susan";`)
	assert.Contains(t, out, `"susan" -> "out";`)

	// Three classes span the ramp from blue over purple to red.
	assert.Contains(t, out, `"bold" [ style="filled", fillcolor="#0000f0" ];`)
	assert.Contains(t, out, `"usan" [ style="filled", fillcolor="#780078" ];`)
	assert.Contains(t, out, `"out" [ style="filled", fillcolor="#f00000" ];`)
}

func TestDOTDrawerIsDeterministic(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	render := func(fileName string) string {
		d := NewDOT(fileName)
		fill(t, d)
		require.NoError(t, d.Draw())

		data, err := os.ReadFile(fileName)
		require.NoError(t, err)

		return string(data)
	}

	first := render(filepath.Join(dir, "one.dot"))
	second := render(filepath.Join(dir, "two.dot"))
	assert.Equal(t, first, second)
}

func TestDrawerRejectsBadGraphs(t *testing.T) {
	t.Parallel()
	d := NewDOT(filepath.Join(t.TempDir(), "graph.dot"))
	require.NoError(t, d.AddNode("a", "step"))
	require.NoError(t, d.AddNode("b", "step"))
	require.NoError(t, d.AddLink("a", "b"))

	assert.ErrorIs(t, d.AddNode("a", "step"), graph.ErrVertexAlreadyExists)
	assert.ErrorIs(t, d.AddLink("a", "nope"), graph.ErrVertexNotFound)
	assert.ErrorIs(t, d.AddLink("a", "b"), graph.ErrEdgeAlreadyExists)
	assert.ErrorIs(t, d.AddLink("b", "a"), graph.ErrEdgeCreatesCycle)
}

func TestClassColors(t *testing.T) {
	t.Parallel()
	p := newPipelineGraph()
	require.NoError(t, p.addNode("a", "one"))

	colours, err := p.classColors()
	require.NoError(t, err)
	assert.Equal(t, "#0000f0", strings.ToLower(colours["one"]))

	require.NoError(t, p.addNode("b", "two"))
	require.NoError(t, p.addNode("c", "two"))

	colours, err = p.classColors()
	require.NoError(t, err)
	require.Len(t, colours, 2)
	assert.Equal(t, "#0000f0", strings.ToLower(colours["one"]))
	assert.Equal(t, "#f00000", strings.ToLower(colours["two"]))
}

func TestSVGDrawer(t *testing.T) {
	t.Parallel()
	fileName := filepath.Join(t.TempDir(), "graph.svg")

	d := NewSVG(fileName)
	fill(t, d)
	require.NoError(t, d.Draw())

	data, err := os.ReadFile(fileName)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg"`))
	assert.Contains(t, out, `marker-end="url(#arrow)"`)
	assert.Contains(t, out, ">susan</text>")
	assert.Contains(t, strings.ToLower(out), `fill="#0000f0"`)

	// bold sits in the first column, mask in the second.
	assert.Contains(t, out, `<rect x="40" y="40"`)
	assert.Contains(t, out, `<rect x="260" y="40"`)
}

func TestSVGDrawerEscapesNames(t *testing.T) {
	t.Parallel()
	fileName := filepath.Join(t.TempDir(), "graph.svg")

	d := NewSVG(fileName)
	require.NoError(t, d.AddNode(`in<"out">`, "step"))
	require.NoError(t, d.Draw())

	data, err := os.ReadFile(fileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "in&lt;&quot;out&quot;&gt;")
}
