package topology

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"citypulse/internal/models"
)

// ErrUnknownNode is returned when a query names a node the network lacks.
var ErrUnknownNode = errors.New("unknown topology node")

const kindAttribute = "kind"

// Node is one diagram node with its connection degree attached.
type Node struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Degree int    `json:"degree"`
}

// Link is one diagram edge.
type Link struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Kind     string `json:"kind"`
	Capacity int    `json:"capacity"`
}

// GraphData is the node-link payload consumed by the diagram renderer.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Stats summarises the shape of the network.
type Stats struct {
	Nodes       int     `json:"nodes"`
	Links       int     `json:"links"`
	Density     float64 `json:"density"`
	MaxDegreeID string  `json:"max_degree_id"`
	MaxDegree   int     `json:"max_degree"`
}

// Network models the city infrastructure as an undirected weighted graph.
type Network struct {
	g     graph.Graph[string, string]
	specs map[string]models.NodeSpec
	order []string
}

// Build constructs the network from configured nodes and links, validating
// referential integrity of link endpoints.
func Build(nodes []models.NodeSpec, links []models.LinkSpec) (*Network, error) {
	n := &Network{
		g:     graph.New(graph.StringHash, graph.Weighted()),
		specs: make(map[string]models.NodeSpec, len(nodes)),
	}

	for _, spec := range nodes {
		if spec.ID == "" {
			return nil, errors.New("topology node is missing id")
		}
		if err := n.g.AddVertex(spec.ID); err != nil {
			if errors.Is(err, graph.ErrVertexAlreadyExists) {
				return nil, fmt.Errorf("duplicate topology node %q", spec.ID)
			}
			return nil, fmt.Errorf("add node %q: %w", spec.ID, err)
		}
		n.specs[spec.ID] = spec
		n.order = append(n.order, spec.ID)
	}

	for _, link := range links {
		if _, ok := n.specs[link.Source]; !ok {
			return nil, fmt.Errorf("link references %w: %q", ErrUnknownNode, link.Source)
		}
		if _, ok := n.specs[link.Target]; !ok {
			return nil, fmt.Errorf("link references %w: %q", ErrUnknownNode, link.Target)
		}
		err := n.g.AddEdge(link.Source, link.Target,
			graph.EdgeWeight(link.Capacity),
			graph.EdgeAttribute(kindAttribute, link.Kind),
		)
		if err != nil {
			if errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("duplicate link %s-%s", link.Source, link.Target)
			}
			return nil, fmt.Errorf("add link %s-%s: %w", link.Source, link.Target, err)
		}
	}

	return n, nil
}

// Snapshot exports the node-link payload, nodes in configured order.
func (n *Network) Snapshot() (GraphData, error) {
	adjacency, err := n.g.AdjacencyMap()
	if err != nil {
		return GraphData{}, fmt.Errorf("adjacency map: %w", err)
	}

	data := GraphData{
		Nodes: make([]Node, 0, len(n.order)),
	}
	for _, id := range n.order {
		spec := n.specs[id]
		data.Nodes = append(data.Nodes, Node{
			ID:     id,
			Name:   spec.Name,
			Kind:   spec.Kind,
			Degree: len(adjacency[id]),
		})
	}

	edges, err := n.g.Edges()
	if err != nil {
		return GraphData{}, fmt.Errorf("edges: %w", err)
	}
	data.Links = make([]Link, 0, len(edges))
	for _, edge := range edges {
		data.Links = append(data.Links, Link{
			Source:   edge.Source,
			Target:   edge.Target,
			Kind:     edge.Properties.Attributes[kindAttribute],
			Capacity: edge.Properties.Weight,
		})
	}
	sort.Slice(data.Links, func(i, j int) bool {
		if data.Links[i].Source == data.Links[j].Source {
			return data.Links[i].Target < data.Links[j].Target
		}
		return data.Links[i].Source < data.Links[j].Source
	})

	return data, nil
}

// Neighbors returns the sorted ids adjacent to the given node.
func (n *Network) Neighbors(id string) ([]string, error) {
	if _, ok := n.specs[id]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	adjacency, err := n.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("adjacency map: %w", err)
	}
	neighbors := make([]string, 0, len(adjacency[id]))
	for neighbor := range adjacency[id] {
		neighbors = append(neighbors, neighbor)
	}
	sort.Strings(neighbors)
	return neighbors, nil
}

// Stats computes node/link counts, density and the best-connected node.
func (n *Network) Stats() (Stats, error) {
	adjacency, err := n.g.AdjacencyMap()
	if err != nil {
		return Stats{}, fmt.Errorf("adjacency map: %w", err)
	}

	stats := Stats{Nodes: len(n.order)}
	for _, id := range n.order {
		degree := len(adjacency[id])
		stats.Links += degree
		if degree > stats.MaxDegree {
			stats.MaxDegree = degree
			stats.MaxDegreeID = id
		}
	}
	// Each undirected link appears twice in the adjacency map.
	stats.Links /= 2
	if stats.Nodes > 1 {
		stats.Density = float64(2*stats.Links) / float64(stats.Nodes*(stats.Nodes-1))
	}
	return stats, nil
}
