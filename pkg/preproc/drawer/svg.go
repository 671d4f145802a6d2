package drawer

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// SVGDrawer renders the pipeline graph as a plain SVG drawing. Nodes
// sit in columns by their depth in the graph and links run from left
// to right.
type SVGDrawer struct {
	pipelineGraph
	fileName string
}

// NewSVG creates a drawer writing SVG to fileName.
func NewSVG(fileName string) *SVGDrawer {
	return &SVGDrawer{pipelineGraph: newPipelineGraph(), fileName: fileName}
}

// AddNode adds a node to the pipeline graph.
func (d *SVGDrawer) AddNode(name, class string) error {
	return d.addNode(name, class)
}

// AddLink adds a link between a parent and a child node.
func (d *SVGDrawer) AddLink(parentName, childName string) error {
	return d.addLink(parentName, childName)
}

const (
	boxWidth   = 180
	boxHeight  = 40
	columnStep = 220
	rowStep    = 70
	margin     = 40
)

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

type box struct {
	x, y int
}

// layout places every node in the column matching its depth, counted
// over the longest path from a root. Rows fill up in insertion order.
func (d *SVGDrawer) layout() (map[string]box, int, int, error) {
	preds, err := d.graph.PredecessorMap()
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "unable to get predecessor map")
	}

	depths := make(map[string]int, len(d.order))
	var depthOf func(name string) int
	depthOf = func(name string) int {
		if v, ok := depths[name]; ok {
			return v
		}
		depth := 0
		for parent := range preds[name] {
			if pd := depthOf(parent) + 1; pd > depth {
				depth = pd
			}
		}
		depths[name] = depth

		return depth
	}

	boxes := make(map[string]box, len(d.order))
	rows := make(map[int]int)
	maxDepth, maxRows := 0, 0
	for _, name := range d.order {
		depth := depthOf(name)
		row := rows[depth]
		rows[depth]++

		boxes[name] = box{x: margin + depth*columnStep, y: margin + row*rowStep}
		if depth > maxDepth {
			maxDepth = depth
		}
		if rows[depth] > maxRows {
			maxRows = rows[depth]
		}
	}

	width, height := 2*margin, 2*margin
	if len(d.order) > 0 {
		width += maxDepth*columnStep + boxWidth
		height += (maxRows-1)*rowStep + boxHeight
	}

	return boxes, width, height, nil
}

// Draw renders the graph to the SVG file.
func (d *SVGDrawer) Draw() error {
	colours, err := d.classColors()
	if err != nil {
		return err
	}
	boxes, width, height, err := d.layout()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`+"\n", width, height)
	buf.WriteString(`<defs><marker id="arrow" markerWidth="8" markerHeight="8" refX="8" refY="4" orient="auto"><path d="M0,0 L8,4 L0,8 z" fill="#333333"/></marker></defs>` + "\n")

	for _, l := range d.sortedLinks() {
		from, to := boxes[l.parent], boxes[l.child]
		fmt.Fprintf(&buf,
			`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="#333333" marker-end="url(#arrow)"/>`+"\n",
			from.x+boxWidth, from.y+boxHeight/2, to.x, to.y+boxHeight/2)
	}
	for _, name := range d.order {
		b := boxes[name]
		fmt.Fprintf(&buf,
			`<rect x="%d" y="%d" width="%d" height="%d" rx="6" fill="%s"/>`+"\n",
			b.x, b.y, boxWidth, boxHeight, colours[d.classes[name]])
		fmt.Fprintf(&buf,
			`<text x="%d" y="%d" text-anchor="middle" font-family="monospace" font-size="11" fill="#ffffff">%s</text>`+"\n",
			b.x+boxWidth/2, b.y+boxHeight/2+4, xmlEscaper.Replace(name))
	}
	buf.WriteString("</svg>\n")

	err = os.WriteFile(d.fileName, buf.Bytes(), 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}

	return nil
}

var _ Drawer = (*SVGDrawer)(nil)
