package graphview

// Colors of the two-tone scheme. Membership in the selection decides the tone,
// never the category itself.
const (
	ActiveNodeColor  = "#4299E1"
	DimmedNodeColor  = "#E2E8F0"
	ActiveLabelColor = "#2D3748"
	DimmedLabelColor = "#A0AEC0"
	LinkColor        = "#CBD5E0"

	LinkWidth     = 1
	NodeRelSize   = 6
	BaseLabelSize = 12.0
)

// Style is the rendering contract handed to the force-graph widget. Labels
// are drawn at BaseLabelSize divided by the zoom level.
type Style struct {
	ActiveNodeColor  string  `json:"activeNodeColor" msgpack:"activeNodeColor"`
	DimmedNodeColor  string  `json:"dimmedNodeColor" msgpack:"dimmedNodeColor"`
	ActiveLabelColor string  `json:"activeLabelColor" msgpack:"activeLabelColor"`
	DimmedLabelColor string  `json:"dimmedLabelColor" msgpack:"dimmedLabelColor"`
	LinkColor        string  `json:"linkColor" msgpack:"linkColor"`
	LinkWidth        float64 `json:"linkWidth" msgpack:"linkWidth"`
	NodeRelSize      float64 `json:"nodeRelSize" msgpack:"nodeRelSize"`
	BaseLabelSize    float64 `json:"baseLabelSize" msgpack:"baseLabelSize"`
}

// DefaultStyle returns the dashboard palette.
func DefaultStyle() Style {
	return Style{
		ActiveNodeColor:  ActiveNodeColor,
		DimmedNodeColor:  DimmedNodeColor,
		ActiveLabelColor: ActiveLabelColor,
		DimmedLabelColor: DimmedLabelColor,
		LinkColor:        LinkColor,
		LinkWidth:        LinkWidth,
		NodeRelSize:      NodeRelSize,
		BaseLabelSize:    BaseLabelSize,
	}
}

// NodeColor returns the fill for a node of the given category.
func NodeColor(sel Selection, category string) string {
	if sel.Has(category) {
		return ActiveNodeColor
	}
	return DimmedNodeColor
}

// LabelColor returns the label color for a node of the given category.
func LabelColor(sel Selection, category string) string {
	if sel.Has(category) {
		return ActiveLabelColor
	}
	return DimmedLabelColor
}

// NodeStyle is the color pair of one category.
type NodeStyle struct {
	Color      string `json:"color" msgpack:"color"`
	LabelColor string `json:"labelColor" msgpack:"labelColor"`
}

// Palette maps each category to its colors under sel.
func Palette(sel Selection, categories []string) map[string]NodeStyle {
	p := make(map[string]NodeStyle, len(categories))
	for _, c := range categories {
		p[c] = NodeStyle{Color: NodeColor(sel, c), LabelColor: LabelColor(sel, c)}
	}
	return p
}
