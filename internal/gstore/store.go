// Package gstore backs the exported pipeline graphs with an in-memory
// vertex store.
package gstore

import (
	"sync"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

// record keeps a vertex value next to its drawing properties.
type record[T any] struct {
	value T
	props graph.VertexProperties
}

// Store implements graph.Store in memory. It also carries a fastpath
// for cycle checks: the generic check walks PredecessorMap, which
// copies every edge map on each call, while the in-edges are already
// at hand here.
type Store[K comparable, T any] struct {
	mu       sync.RWMutex
	vertices map[K]record[T]

	// out and in index the edges by source and by target.
	out map[K]map[K]graph.Edge[K]
	in  map[K]map[K]graph.Edge[K]
}

func New[K comparable, T any]() *Store[K, T] {
	return &Store[K, T]{
		vertices: make(map[K]record[T]),
		out:      make(map[K]map[K]graph.Edge[K]),
		in:       make(map[K]map[K]graph.Edge[K]),
	}
}

func (s *Store[K, T]) AddVertex(k K, value T, props graph.VertexProperties) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vertices[k]; ok {
		return graph.ErrVertexAlreadyExists
	}
	s.vertices[k] = record[T]{value: value, props: props}

	return nil
}

func (s *Store[K, T]) Vertex(k K) (T, graph.VertexProperties, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.vertices[k]
	if !ok {
		return rec.value, graph.VertexProperties{}, graph.ErrVertexNotFound
	}

	return rec.value, rec.props, nil
}

func (s *Store[K, T]) RemoveVertex(k K) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vertices[k]; !ok {
		return graph.ErrVertexNotFound
	}
	if len(s.in[k]) > 0 || len(s.out[k]) > 0 {
		return graph.ErrVertexHasEdges
	}

	delete(s.in, k)
	delete(s.out, k)
	delete(s.vertices, k)

	return nil
}

func (s *Store[K, T]) ListVertices() ([]K, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hashes := make([]K, 0, len(s.vertices))
	for k := range s.vertices {
		hashes = append(hashes, k)
	}

	return hashes, nil
}

func (s *Store[K, T]) VertexCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.vertices), nil
}

func (s *Store[K, T]) AddEdge(source, target K, edge graph.Edge[K]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.out[source]; !ok {
		s.out[source] = make(map[K]graph.Edge[K])
	}
	s.out[source][target] = edge

	if _, ok := s.in[target]; !ok {
		s.in[target] = make(map[K]graph.Edge[K])
	}
	s.in[target][source] = edge

	return nil
}

func (s *Store[K, T]) UpdateEdge(source, target K, edge graph.Edge[K]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.out[source][target]; !ok {
		return graph.ErrEdgeNotFound
	}
	s.out[source][target] = edge
	s.in[target][source] = edge

	return nil
}

func (s *Store[K, T]) RemoveEdge(source, target K) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.out[source], target)
	delete(s.in[target], source)

	return nil
}

func (s *Store[K, T]) Edge(source, target K) (graph.Edge[K], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edge, ok := s.out[source][target]
	if !ok {
		return graph.Edge[K]{}, graph.ErrEdgeNotFound
	}

	return edge, nil
}

func (s *Store[K, T]) ListEdges() ([]graph.Edge[K], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges := make([]graph.Edge[K], 0, len(s.out))
	for _, targets := range s.out {
		for _, edge := range targets {
			edges = append(edges, edge)
		}
	}

	return edges, nil
}

// CreatesCycle reports whether an edge from source to target would
// close a cycle, by walking the in-edges from source upwards.
func (s *Store[K, T]) CreatesCycle(source, target K) (bool, error) {
	if _, _, err := s.Vertex(source); err != nil {
		return false, errors.Wrapf(err, "get vertex %v", source)
	}
	if _, _, err := s.Vertex(target); err != nil {
		return false, errors.Wrapf(err, "get vertex %v", target)
	}
	if source == target {
		return true, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stack := []K{source}
	visited := make(map[K]struct{})
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := visited[current]; ok {
			continue
		}
		// Reaching the target from the source through in-edges means
		// the target is an ancestor, so the new edge closes a loop.
		if current == target {
			return true, nil
		}
		visited[current] = struct{}{}

		for parent := range s.in[current] {
			stack = append(stack, parent)
		}
	}

	return false, nil
}
