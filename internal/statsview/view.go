// Package statsview loads the knowledge-base statistics snapshot once and
// projects it into display rows.
package statsview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kb-dashboard/backend/internal/models"
)

// Status is the load state of the view.
type Status string

const (
	StatusLoading  Status = "loading"
	StatusReady    Status = "ready"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timeout"
)

// Date layouts used on the page.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Fetcher reads the statistics snapshot from the backend.
type Fetcher interface {
	GetKBData(ctx context.Context) (*models.KBDataResponse, error)
}

// Tile is one aggregate count.
type Tile struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Row is one document line of the table.
type Row struct {
	DocID              int64  `json:"docId"`
	Title              string `json:"title"`
	FileType           string `json:"fileType"`
	TotalChunks        int    `json:"totalChunks"`
	TotalEntities      int    `json:"totalEntities"`
	TotalRelationships int    `json:"totalRelationships"`
	Created            string `json:"created"`
	Status             string `json:"status"`
}

// View is the statistics panel of one page load.
type View struct {
	mu            sync.RWMutex
	status        Status
	err           string
	stats         models.KBStats
	executionTime float64
	loc           *time.Location
}

// NewView creates a view in the loading state. Dates render in loc, or UTC
// when loc is nil.
func NewView(loc *time.Location) *View {
	if loc == nil {
		loc = time.UTC
	}
	return &View{status: StatusLoading, loc: loc}
}

// Load performs the single statistics read. There is no retry.
func (v *View) Load(ctx context.Context, f Fetcher, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := f.GetKBData(ctx)

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

	v.stats = resp.Stats
	v.executionTime = resp.ExecutionTime
	v.status = StatusReady
	return nil
}

// Status returns the load state.
func (v *View) Status() Status {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

// Err returns the failure message, empty unless failed or timed out.
func (v *View) Err() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// Tiles returns the four aggregate counts in display order.
func (v *View) Tiles() []Tile {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return []Tile{
		{Label: "Total Documents", Value: v.stats.TotalDocuments},
		{Label: "Total Chunks", Value: v.stats.TotalChunks},
		{Label: "Total Entities", Value: v.stats.TotalEntities},
		{Label: "Total Relationships", Value: v.stats.TotalRelationships},
	}
}

// Rows returns the documents in backend order.
func (v *View) Rows() []Row {
	v.mu.RLock()
	defer v.mu.RUnlock()

	rows := make([]Row, 0, len(v.stats.Documents))
	for _, d := range v.stats.Documents {
		rows = append(rows, Row{
			DocID:              d.DocID,
			Title:              d.Title,
			FileType:           d.FileType,
			TotalChunks:        d.TotalChunks,
			TotalEntities:      d.TotalEntities,
			TotalRelationships: d.TotalRelationships,
			Created:            FormatTimestamp(d.CreatedAt, DateLayout, v.loc),
			Status:             d.Status,
		})
	}
	return rows
}

// LastUpdated returns the formatted snapshot time.
func (v *View) LastUpdated() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return FormatTimestamp(v.stats.LastUpdated, DateTimeLayout, v.loc)
}

// ExecutionTime returns the backend's reported computation time in seconds.
func (v *View) ExecutionTime() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.executionTime
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// FormatTimestamp renders a backend timestamp in layout. Timestamps without
// a zone are read as wall time in loc. Values that match no known layout are
// returned unchanged.
func FormatTimestamp(raw, layout string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	for _, l := range timestampLayouts {
		if t, err := time.ParseInLocation(l, raw, loc); err == nil {
			return t.In(loc).Format(layout)
		}
	}
	return raw
}

// Payload is the serializable form of the view.
type Payload struct {
	Status        Status  `json:"status"`
	Error         string  `json:"error,omitempty"`
	Tiles         []Tile  `json:"tiles"`
	Documents     []Row   `json:"documents"`
	LastUpdated   string  `json:"lastUpdated"`
	ExecutionTime float64 `json:"executionTime"`
}

// Payload returns the view's current content.
func (v *View) Payload() Payload {
	return Payload{
		Status:        v.Status(),
		Error:         v.Err(),
		Tiles:         v.Tiles(),
		Documents:     v.Rows(),
		LastUpdated:   v.LastUpdated(),
		ExecutionTime: v.ExecutionTime(),
	}
}
