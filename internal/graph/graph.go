// Package graph holds the directed, weighted town graph and the route
// algorithms that run over it.
package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"

	dgraph "github.com/dominikbraun/graph"
)

// MaxLinkDistance is the largest distance a link can have. Route distances
// are sums of link distances, so the bound keeps them from overflowing.
const MaxLinkDistance = math.MaxInt32

// A Link is a one-way route from a town to another, with its distance.
type Link struct {
	From     string
	To       string
	Distance int
}

func (l Link) String() string {
	return fmt.Sprintf("%s%s%d", l.From, l.To, l.Distance)
}

// Graph is a directed graph of towns connected by links with positive
// integer distances. There is at most one link for each ordered pair of towns.
//
// Towns keep the order in which they were added, so everything derived from
// a graph (links, adjacency, printed output) is deterministic. Use New to
// create a Graph.
type Graph struct {
	g     dgraph.Graph[string, string]
	towns []string
	index map[string]int
}

func New() *Graph {
	return &Graph{
		g:     dgraph.New(dgraph.StringHash, dgraph.Directed(), dgraph.Weighted()),
		index: make(map[string]int),
	}
}

// AddTown adds a town to the graph. Adding a town that is already present
// is a no-op.
func (g *Graph) AddTown(name string) error {
	if name == "" {
		return ErrEmptyTown
	}
	if _, ok := g.index[name]; ok {
		return nil
	}
	if err := g.g.AddVertex(name); err != nil && !errors.Is(err, dgraph.ErrVertexAlreadyExists) {
		return err
	}

	g.index[name] = len(g.towns)
	g.towns = append(g.towns, name)
	return nil
}

// AddLink adds a link from one town to another, adding the towns first
// if needed. Linking the same pair of towns again replaces the distance.
func (g *Graph) AddLink(from, to string, distance int) error {
	if from == to {
		return &LinkError{Link: Link{from, to, distance}, Explanation: "a town cannot link to itself"}
	}
	if distance < 1 {
		return &LinkError{Link: Link{from, to, distance}, Explanation: "distance must be positive"}
	}
	if distance > MaxLinkDistance {
		return &LinkError{Link: Link{from, to, distance}, Explanation: "distance is too large"}
	}
	if err := g.AddTown(from); err != nil {
		return err
	}
	if err := g.AddTown(to); err != nil {
		return err
	}

	err := g.g.AddEdge(from, to, dgraph.EdgeWeight(distance))
	if errors.Is(err, dgraph.ErrEdgeAlreadyExists) {
		err = g.g.UpdateEdge(from, to, dgraph.EdgeWeight(distance))
	}
	if err != nil {
		return &LinkError{Link: Link{from, to, distance}, Reason: err}
	}

	return nil
}

// Town reports whether the graph contains the given town.
func (g *Graph) Town(name string) bool {
	_, ok := g.index[name]
	return ok
}

// Towns returns the towns in the order they were added.
func (g *Graph) Towns() []string {
	return append([]string(nil), g.towns...)
}

// Order returns the number of towns.
func (g *Graph) Order() int {
	return len(g.towns)
}

// Size returns the number of links.
func (g *Graph) Size() int {
	n, err := g.g.Size()
	if err != nil {
		return 0
	}
	return n
}

// Distance returns the distance of the direct link between two towns.
func (g *Graph) Distance(from, to string) (int, bool) {
	e, err := g.g.Edge(from, to)
	if err != nil {
		return 0, false
	}
	return e.Properties.Weight, true
}

// TotalDistance returns the sum of the distances of all links.
func (g *Graph) TotalDistance() int {
	var total int
	for _, l := range g.Links() {
		total += l.Distance
	}
	return total
}

// Links returns every link of the graph, ordered by the position of the
// source town and then by the position of the target town.
func (g *Graph) Links() []Link {
	adj, err := g.adjacency()
	if err != nil {
		return nil
	}

	var links []Link
	for _, town := range g.towns {
		links = append(links, adj[town]...)
	}
	return links
}

func (g *Graph) adjacency() (map[string][]Link, error) {
	am, err := g.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}

	adj := make(map[string][]Link, len(am))
	for from, targets := range am {
		links := make([]Link, 0, len(targets))
		for to, e := range targets {
			links = append(links, Link{From: from, To: to, Distance: e.Properties.Weight})
		}
		sort.Slice(links, func(i, j int) bool {
			return g.index[links[i].To] < g.index[links[j].To]
		})
		adj[from] = links
	}

	return adj, nil
}

// IsValidPath reports whether each town in the sequence links to the next one.
// Empty and single-town paths are valid as long as the towns exist.
func (g *Graph) IsValidPath(towns ...string) bool {
	for i, town := range towns {
		if !g.Town(town) {
			return false
		}
		if i == 0 {
			continue
		}
		if _, ok := g.Distance(towns[i-1], town); !ok {
			return false
		}
	}
	return true
}
