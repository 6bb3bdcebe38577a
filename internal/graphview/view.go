package graphview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/kb-dashboard/backend/internal/models"
)

// Status is the load state of a view.
type Status string

const (
	StatusLoading  Status = "loading"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timeout"
)

var (
	// ErrNotReady is returned by Toggle before the graph has loaded.
	ErrNotReady = errors.New("graph view is not loaded")

	// ErrUnknownCategory is returned by Toggle for a label the backend did
	// not list.
	ErrUnknownCategory = errors.New("unknown category")
)

// Fetcher reads the graph payload from the backend.
type Fetcher interface {
	GetGraphData(ctx context.Context) (*models.GraphResponse, error)
}

// Snapshot is a consistent copy of a view's state.
type Snapshot struct {
	ID         string           `json:"id" msgpack:"id"`
	Status     Status           `json:"status" msgpack:"status"`
	Error      string           `json:"error,omitempty" msgpack:"error,omitempty"`
	Categories []string         `json:"categories" msgpack:"categories"`
	Selected   []string         `json:"selected" msgpack:"selected"`
	Graph      models.GraphData `json:"graph" msgpack:"graph"`
	Dangling   int              `json:"dangling" msgpack:"dangling"`
	Style      Style            `json:"style" msgpack:"style"`

	// Palette holds the node and label colors of every category under the
	// current selection.
	Palette map[string]NodeStyle `json:"palette" msgpack:"palette"`
}

// View is one mounted graph: the unfiltered data, the category list, and the
// selection. Toggling re-filters in memory.
type View struct {
	mu         sync.RWMutex
	id         string
	status     Status
	err        string
	data       models.GraphData
	categories []string
	selection  Selection
	filtered   FilterResult
}

// NewView creates a view in the loading state.
func NewView(id string) *View {
	return &View{
		id:        id,
		status:    StatusLoading,
		selection: Selection{},
	}
}

// ID returns the view identifier.
func (v *View) ID() string {
	return v.id
}

// Load performs the single graph read of this view. A read that does not
// finish within timeout leaves the view in StatusTimedOut.
func (v *View) Load(ctx context.Context, f Fetcher, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := f.GetGraphData(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.status = StatusFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			v.status = StatusTimedOut
		}
		v.err = err.Error()
		return err
	}

	v.data = resp.Data
	v.categories = append([]string(nil), resp.Categories...)
	v.selection = NewSelection(resp.Categories)
	v.filtered = Filter(v.data, v.selection)
	v.status = StatusReady
	v.err = ""
	return nil
}

// Toggle flips one of the listed categories and re-filters the held data.
func (v *View) Toggle(category string) (Snapshot, error) {
	v.mu.Lock()
	if v.status != StatusReady {
		v.mu.Unlock()
		return Snapshot{}, ErrNotReady
	}
	if !slices.Contains(v.categories, category) {
		v.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	v.selection = v.selection.Toggle(category)
	v.filtered = Filter(v.data, v.selection)
	v.mu.Unlock()

	return v.Snapshot(), nil
}

// Dangling returns the number of links the filter dropped for unknown endpoints.
func (v *View) Dangling() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.filtered.Dangling
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return Snapshot{
		ID:         v.id,
		Status:     v.status,
		Error:      v.err,
		Categories: append([]string{}, v.categories...),
		Selected:   v.selection.Sorted(),
		Graph: models.GraphData{
			Nodes: append([]models.Node{}, v.filtered.Graph.Nodes...),
			Links: append([]models.Link{}, v.filtered.Graph.Links...),
		},
		Dangling: v.filtered.Dangling,
		Style:    DefaultStyle(),
		Palette:  Palette(v.selection, v.categories),
	}
}
