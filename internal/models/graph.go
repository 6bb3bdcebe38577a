package models

// Node is an extracted entity.
type Node struct {
	ID       string  `json:"id" msgpack:"id"`
	Name     string  `json:"name" msgpack:"name"`
	Category string  `json:"category" msgpack:"category"`
	Val      float64 `json:"val" msgpack:"val"` // size weight
}

// Link is a relationship between two nodes, referenced by id.
type Link struct {
	Source string  `json:"source" msgpack:"source"`
	Target string  `json:"target" msgpack:"target"`
	Value  float64 `json:"value" msgpack:"value"`
}

// GraphData is a node/link graph as returned by the backend.
type GraphData struct {
	Nodes []Node `json:"nodes" msgpack:"nodes"`
	Links []Link `json:"links" msgpack:"links"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return g == nil || len(g.Nodes) == 0
}

// GraphResponse is the body of GET /graph-data.
type GraphResponse struct {
	Data       GraphData `json:"data"`
	Categories []string  `json:"categories"`
}
