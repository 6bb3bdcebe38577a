// Package upload implements the document upload flow: candidate selection
// with validation, and a submit that allows one request in flight.
package upload

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/kb-dashboard/backend/internal/logger"
	"github.com/kb-dashboard/backend/internal/metrics"
	"github.com/kb-dashboard/backend/internal/models"
)

// State is the position of a flow in its lifecycle.
type State string

const (
	StateIdle         State = "idle"
	StateFileSelected State = "file-selected"
	StateUploading    State = "uploading"
)

// RedirectTarget is where the page navigates after a started upload.
const RedirectTarget = "/kb"

// ErrUploadInFlight is returned when the candidate is replaced mid-upload.
var ErrUploadInFlight = errors.New("an upload is already in progress")

// Uploader sends a document to the backend.
type Uploader interface {
	Upload(ctx context.Context, fileName, contentType string, r io.Reader) (*models.UploadResponse, error)
}

// CandidateStore keeps the selected file until it is submitted.
type CandidateStore interface {
	Save(name, contentType string, r io.Reader) (*models.FileInfo, error)
	Open(id string) (io.ReadCloser, error)
	Delete(id string) error
}

// Snapshot is a consistent copy of a flow's state.
type Snapshot struct {
	ID         string           `json:"id"`
	State      State            `json:"state"`
	Dragging   bool             `json:"dragging"`
	File       *models.FileInfo `json:"file,omitempty"`
	Error      string           `json:"error,omitempty"`
	NavigateTo string           `json:"navigateTo,omitempty"`
	TaskID     string           `json:"taskId,omitempty"`
	DocID      int64            `json:"docId,omitempty"`
}

// Flow is one upload page instance.
type Flow struct {
	mu         sync.Mutex
	id         string
	state      State
	dragging   bool
	candidate  *models.FileInfo
	errMsg     string
	navigateTo string
	lastResp   *models.UploadResponse
	inFlight   bool

	store    CandidateStore
	uploader Uploader
	maxSize  int64
	timeout  time.Duration
}

// Option configures a Flow.
type Option func(*Flow)

// WithMaxSize overrides the size limit.
func WithMaxSize(n int64) Option {
	return func(f *Flow) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// WithTimeout bounds each submission.
func WithTimeout(d time.Duration) Option {
	return func(f *Flow) {
		f.timeout = d
	}
}

// NewFlow creates an idle flow.
func NewFlow(id string, store CandidateStore, uploader Uploader, opts ...Option) *Flow {
	f := &Flow{
		id:       id,
		state:    StateIdle,
		store:    store,
		uploader: uploader,
		maxSize:  MaxFileSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ID returns the flow identifier.
func (f *Flow) ID() string {
	return f.id
}

// SetDragging updates the drag highlight. It has no other effect.
func (f *Flow) SetDragging(on bool) Snapshot {
	f.mu.Lock()
	f.dragging = on
	f.mu.Unlock()
	return f.Snapshot()
}

// Select validates a dropped or picked file and makes it the candidate.
// On rejection the state and any previous candidate are kept and the
// rejection message is set.
func (f *Flow) Select(name, contentType string, size int64, r io.Reader) (Snapshot, error) {
	f.mu.Lock()
	f.dragging = false

	if f.inFlight {
		f.mu.Unlock()
		return f.Snapshot(), ErrUploadInFlight
	}

	if err := Validate(contentType, size, f.maxSize); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			metrics.IncValidationRejection(verr.Reason)
		}
		f.errMsg = err.Error()
		f.mu.Unlock()
		return f.Snapshot(), err
	}
	f.mu.Unlock()

	info, err := f.store.Save(name, contentType, r)
	if err != nil {
		return f.Snapshot(), err
	}

	f.mu.Lock()
	if f.inFlight {
		f.mu.Unlock()
		f.discard(info)
		return f.Snapshot(), ErrUploadInFlight
	}
	prev := f.candidate
	f.candidate = info
	f.errMsg = ""
	f.navigateTo = ""
	f.state = StateFileSelected
	f.mu.Unlock()

	f.discard(prev)
	return f.Snapshot(), nil
}

// Submit sends the candidate to the backend. It returns false without any
// backend call when there is no candidate or an upload is already running.
func (f *Flow) Submit(ctx context.Context) (Snapshot, bool) {
	f.mu.Lock()
	if f.candidate == nil || f.inFlight {
		f.mu.Unlock()
		metrics.IncUploadOutcome("skipped")
		return f.Snapshot(), false
	}
	f.inFlight = true
	f.state = StateUploading
	f.errMsg = ""
	file := f.candidate
	f.mu.Unlock()

	resp, err := f.send(ctx, file)

	f.mu.Lock()
	f.inFlight = false
	f.lastResp = resp
	var started bool
	switch {
	case err != nil:
		f.errMsg = err.Error()
		f.state = StateFileSelected
		metrics.IncUploadOutcome("error")
	case resp.Started():
		started = true
		f.candidate = nil
		f.state = StateIdle
		f.navigateTo = RedirectTarget
		metrics.IncUploadOutcome("started")
	default:
		f.errMsg = resp.Message
		if f.errMsg == "" {
			f.errMsg = MsgUploadFailed
		}
		f.state = StateFileSelected
		metrics.IncUploadOutcome("rejected")
	}
	f.mu.Unlock()

	if started {
		logger.Info("Upload started", "flow", f.id, "file", file.Name, "task", resp.TaskID, "doc", resp.DocID)
		f.discard(file)
	} else {
		logger.Warn("Upload failed", "flow", f.id, "file", file.Name, "error", f.Err())
	}
	return f.Snapshot(), true
}

func (f *Flow) send(ctx context.Context, file *models.FileInfo) (*models.UploadResponse, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	rc, err := f.store.Open(file.ID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	resp, err := f.uploader.Upload(ctx, file.Name, file.ContentType, rc)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &models.UploadResponse{}, nil
	}
	return resp, nil
}

// Close releases the stored candidate. Called when the flow expires.
func (f *Flow) Close() {
	f.mu.Lock()
	file := f.candidate
	if !f.inFlight {
		f.candidate = nil
	} else {
		file = nil
	}
	f.mu.Unlock()
	f.discard(file)
}

func (f *Flow) discard(info *models.FileInfo) {
	if info == nil {
		return
	}
	if err := f.store.Delete(info.ID); err != nil {
		logger.Warn("Failed to delete upload candidate", "id", info.ID, "error", err)
	}
}

// Err returns the message currently shown to the user.
func (f *Flow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// State returns the current lifecycle state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot returns a copy of the current state.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot{
		ID:         f.id,
		State:      f.state,
		Dragging:   f.dragging,
		Error:      f.errMsg,
		NavigateTo: f.navigateTo,
	}
	if f.candidate != nil {
		c := *f.candidate
		s.File = &c
	}
	if f.lastResp != nil {
		s.TaskID = f.lastResp.TaskID
		s.DocID = f.lastResp.DocID
	}
	return s
}
