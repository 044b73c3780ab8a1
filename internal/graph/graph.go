package graph

// Node represents a knowledge graph entity.
type Node struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Label      string                 `json:"label,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Edge represents a typed relation between two entities.
type Edge struct {
	From       string                 `json:"from"`
	To         string                 `json:"to"`
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Graph is an in-memory staging area for entities and relations
// before they are written to the store.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// AddNode adds a node to the graph if it does not exist.
func (g *Graph) AddNode(node Node) {
	for _, existing := range g.Nodes {
		if existing.ID == node.ID {
			return
		}
	}
	g.Nodes = append(g.Nodes, node)
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(edge Edge) {
	g.Edges = append(g.Edges, edge)
}
