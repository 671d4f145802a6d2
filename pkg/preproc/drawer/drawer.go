// Package drawer renders pipeline graphs to files. Nodes carry a
// class, and nodes of the same class share a colour.
package drawer

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnknownFormat is returned when no renderer matches the file name.
var ErrUnknownFormat = errors.New("unknown graph format")

// Drawer collects the nodes and links of a pipeline graph and renders
// them to a file.
type Drawer interface {
	// AddNode adds a node to the pipeline graph.
	AddNode(name, class string) error
	// AddLink adds a link between a parent and a child node.
	AddLink(parentName, childName string) error
	// Draw renders the graph to the file.
	Draw() error
}

// New picks the drawer matching the extension of fileName. DOT and
// SVG files are supported.
func New(fileName string) (Drawer, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".dot", ".gv":
		return NewDOT(fileName), nil
	case ".svg":
		return NewSVG(fileName), nil
	default:
		return nil, errors.Wrap(ErrUnknownFormat, fileName)
	}
}
