package drawer

import (
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/can-lab/finish-the-job/internal/gstore"
)

// pipelineGraph is the model shared by the renderers. The graph
// rejects duplicate nodes, links between unknown nodes and links that
// would close a loop. Insertion order is kept next to it so that the
// rendered output stays stable between runs.
type pipelineGraph struct {
	graph   graph.Graph[string, string]
	order   []string
	classes map[string]string
	links   []link
}

type link struct {
	parent, child string
}

func newPipelineGraph() pipelineGraph {
	return pipelineGraph{
		graph: graph.NewWithStore(
			graph.StringHash,
			gstore.New[string, string](),
			graph.Directed(),
			graph.PreventCycles(),
		),
		classes: make(map[string]string),
	}
}

func (p *pipelineGraph) addNode(name, class string) error {
	err := p.graph.AddVertex(name)
	if err != nil {
		return errors.Wrapf(err, "unable to add vertex %s", name)
	}

	p.order = append(p.order, name)
	p.classes[name] = class

	return nil
}

func (p *pipelineGraph) addLink(parentName, childName string) error {
	err := p.graph.AddEdge(parentName, childName)
	if err != nil {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childName)
	}

	p.links = append(p.links, link{parent: parentName, child: childName})

	return nil
}

func (p *pipelineGraph) sortedLinks() []link {
	links := make([]link, len(p.links))
	copy(links, p.links)
	sort.Slice(links, func(i, j int) bool {
		if links[i].parent != links[j].parent {
			return links[i].parent < links[j].parent
		}

		return links[i].child < links[j].child
	})

	return links
}

const maxRGB = 240

// classColors spreads the node classes over a blue to red ramp, in
// the order the classes first appear.
func (p *pipelineGraph) classColors() (map[string]string, error) {
	classes := make([]string, 0, len(p.classes))
	seen := make(map[string]struct{})
	for _, name := range p.order {
		class := p.classes[name]
		if _, ok := seen[class]; ok {
			continue
		}
		seen[class] = struct{}{}
		classes = append(classes, class)
	}

	ramp := make(map[string]string, len(classes))
	for i, class := range classes {
		fraction := 0.0
		if len(classes) > 1 {
			fraction = float64(i) / float64(len(classes)-1)
		}

		red := maxRGB * fraction
		blue := maxRGB - maxRGB*fraction

		rgb, err := colors.RGB(uint8(red), 0, uint8(blue))
		if err != nil {
			return nil, errors.Wrap(err, "unable to get colour")
		}
		ramp[class] = rgb.ToHEX().String()
	}

	return ramp, nil
}
