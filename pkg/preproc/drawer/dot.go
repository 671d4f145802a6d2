package drawer

import (
	"bytes"
	"os"
	"text/template"

	"github.com/pkg/errors"
)

// DOTDrawer renders the pipeline graph in the DOT language, one
// statement per node and per link.
type DOTDrawer struct {
	pipelineGraph
	fileName string
}

// NewDOT creates a drawer writing DOT to fileName.
func NewDOT(fileName string) *DOTDrawer {
	return &DOTDrawer{pipelineGraph: newPipelineGraph(), fileName: fileName}
}

// AddNode adds a node to the pipeline graph.
func (d *DOTDrawer) AddNode(name, class string) error {
	return d.addNode(name, class)
}

// AddLink adds a link between a parent and a child node.
func (d *DOTDrawer) AddLink(parentName, childName string) error {
	return d.addLink(parentName, childName)
}

const dotTemplate = `strict digraph {
{{range $s := .Statements}}	{{if $s.Target}}"{{$s.Source}}" -> "{{$s.Target}}"{{else}}"{{$s.Source}}" [ style="filled", fillcolor="{{$s.FillColor}}" ]{{end}};
{{end}}}
`

type description struct {
	Statements []statement
}

type statement struct {
	Source    string
	Target    string
	FillColor string
}

// Draw renders the graph to the DOT file.
func (d *DOTDrawer) Draw() error {
	colours, err := d.classColors()
	if err != nil {
		return err
	}

	statements := make([]statement, 0, len(d.order)+len(d.links))
	for _, name := range d.order {
		statements = append(statements, statement{Source: name, FillColor: colours[d.classes[name]]})
	}
	for _, l := range d.sortedLinks() {
		statements = append(statements, statement{Source: l.parent, Target: l.child})
	}

	tpl, err := template.New("dotTemplate").Parse(dotTemplate)
	if err != nil {
		return errors.Wrap(err, "unable to parse template")
	}

	var buf bytes.Buffer
	err = tpl.Execute(&buf, description{Statements: statements})
	if err != nil {
		return errors.Wrap(err, "unable to execute template")
	}

	err = os.WriteFile(d.fileName, buf.Bytes(), 0o644)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
