// Package graphview holds the entity graph of one mounted view together with
// its category selection, and projects the visible subgraph.
package graphview

import (
	"sort"

	"github.com/kb-dashboard/backend/internal/models"
)

// Selection is a set of category labels.
type Selection map[string]struct{}

// NewSelection returns a selection containing every given category.
func NewSelection(categories []string) Selection {
	s := make(Selection, len(categories))
	for _, c := range categories {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether the category is selected.
func (s Selection) Has(category string) bool {
	_, ok := s[category]
	return ok
}

// Toggle returns a new selection with the category's membership flipped.
// The receiver is not modified.
func (s Selection) Toggle(category string) Selection {
	next := make(Selection, len(s)+1)
	for c := range s {
		next[c] = struct{}{}
	}
	if _, ok := next[category]; ok {
		delete(next, category)
	} else {
		next[category] = struct{}{}
	}
	return next
}

// Sorted returns the selected categories in lexical order.
func (s Selection) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// FilterResult is the visible part of a graph.
type FilterResult struct {
	Graph models.GraphData
	// Dangling counts links whose source or target is not a node id.
	Dangling int
}

// Filter keeps the nodes whose category is selected, and the links whose two
// endpoints both resolve to a node of the unfiltered graph and are both
// visible. Links with an unknown endpoint are dropped and counted, never an
// error. Input order is preserved.
func Filter(g models.GraphData, sel Selection) FilterResult {
	byID := make(map[string]*models.Node, len(g.Nodes))
	for i := range g.Nodes {
		if _, seen := byID[g.Nodes[i].ID]; !seen {
			byID[g.Nodes[i].ID] = &g.Nodes[i]
		}
	}

	res := FilterResult{
		Graph: models.GraphData{
			Nodes: make([]models.Node, 0, len(g.Nodes)),
			Links: make([]models.Link, 0, len(g.Links)),
		},
	}

	for _, n := range g.Nodes {
		if sel.Has(n.Category) {
			res.Graph.Nodes = append(res.Graph.Nodes, n)
		}
	}

	for _, l := range g.Links {
		src, okSrc := byID[l.Source]
		dst, okDst := byID[l.Target]
		if !okSrc || !okDst {
			res.Dangling++
			continue
		}
		if sel.Has(src.Category) && sel.Has(dst.Category) {
			res.Graph.Links = append(res.Graph.Links, l)
		}
	}

	return res
}
