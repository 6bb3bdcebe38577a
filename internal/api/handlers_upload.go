// handlers_upload.go - Upload flow handlers
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kb-dashboard/backend/internal/kbclient"
	"github.com/kb-dashboard/backend/internal/session"
	"github.com/kb-dashboard/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

type dragRequest struct {
	Dragging *bool `json:"dragging" validate:"required"`
}

type submitResponse struct {
	upload.Snapshot
	Submitted bool `json:"submitted"`
}

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store   upload.CandidateStore
	backend Backend
	flows   *session.Manager[*upload.Flow]
	maxSize int64
	timeout time.Duration
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(store upload.CandidateStore, backend Backend, flows *session.Manager[*upload.Flow], maxSize int64, timeout time.Duration) UploadHandler {
	return &UploadHandlerImpl{
		store:   store,
		backend: backend,
		flows:   flows,
		maxSize: maxSize,
		timeout: timeout,
	}
}

// HandleCreateFlow starts an idle upload flow.
func (h *UploadHandlerImpl) HandleCreateFlow(c echo.Context) error {
	_, flow := h.flows.Create(func(id string) *upload.Flow {
		return upload.NewFlow(id, h.store, h.backend,
			upload.WithMaxSize(h.maxSize),
			upload.WithTimeout(h.timeout),
		)
	})
	return c.JSON(http.StatusCreated, flow.Snapshot())
}

// HandleGetFlow returns the state of a flow.
func (h *UploadHandlerImpl) HandleGetFlow(c echo.Context) error {
	flow, err := lookupFlow(c, h.flows)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, flow.Snapshot())
}

// HandleDrag sets the drag highlight.
func (h *UploadHandlerImpl) HandleDrag(c echo.Context) error {
	flow, err := lookupFlow(c, h.flows)
	if err != nil {
		return err
	}

	var req dragRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, flow.SetDragging(*req.Dragging))
}

// HandleSelectFile accepts a dropped or picked file as the candidate.
// A file refused by validation answers 422 with the unchanged flow state and
// the rejection message.
func (h *UploadHandlerImpl) HandleSelectFile(c echo.Context) error {
	flow, err := lookupFlow(c, h.flows)
	if err != nil {
		return err
	}

	fh, err := c.FormFile(kbclient.UploadField)
	if err != nil {
		return NewBadRequestError("missing file", err)
	}

	src, err := fh.Open()
	if err != nil {
		return NewBadRequestError("failed to read file", err)
	}
	defer src.Close()

	snap, err := flow.Select(fh.Filename, fh.Header.Get(echo.HeaderContentType), fh.Size, src)
	var verr *upload.ValidationError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, snap)
	case errors.As(err, &verr):
		return c.JSON(http.StatusUnprocessableEntity, snap)
	case errors.Is(err, upload.ErrUploadInFlight):
		return NewConflictError(err.Error())
	default:
		return NewInternalError("failed to store file", err)
	}
}

// HandleSubmit sends the candidate to the backend. A submit with no candidate,
// or while another is running, returns the current state with submitted=false.
func (h *UploadHandlerImpl) HandleSubmit(c echo.Context) error {
	flow, err := lookupFlow(c, h.flows)
	if err != nil {
		return err
	}

	// The upload runs to completion even if the caller goes away.
	ctx := context.WithoutCancel(c.Request().Context())
	snap, submitted := flow.Submit(ctx)
	return c.JSON(http.StatusOK, submitResponse{Snapshot: snap, Submitted: submitted})
}

// HandleDeleteFlow discards a flow and its candidate.
func (h *UploadHandlerImpl) HandleDeleteFlow(c echo.Context) error {
	id := c.Param("id")
	if !h.flows.Remove(id) {
		return NewNotFoundError("upload flow", id)
	}
	return c.NoContent(http.StatusNoContent)
}

func lookupFlow(c echo.Context, flows *session.Manager[*upload.Flow]) (*upload.Flow, error) {
	id := c.Param("id")
	flow, ok := flows.Get(id)
	if !ok {
		return nil, NewNotFoundError("upload flow", id)
	}
	return flow, nil
}
