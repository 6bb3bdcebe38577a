// interfaces.go - Handler and dependency interfaces
package api

import (
	"context"
	"io"

	"github.com/kb-dashboard/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// Backend is the knowledge-base client the handlers call.
// kbclient.Client satisfies it.
type Backend interface {
	GetKBData(ctx context.Context) (*models.KBDataResponse, error)
	GetGraphData(ctx context.Context) (*models.GraphResponse, error)
	Upload(ctx context.Context, fileName, contentType string, r io.Reader) (*models.UploadResponse, error)
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// StatsHandler serves the statistics snapshot
type StatsHandler interface {
	HandleGetStats(c echo.Context) error
}

// GraphHandler handles mounted graph views
type GraphHandler interface {
	HandleCreateView(c echo.Context) error
	HandleGetView(c echo.Context) error
	HandleGetViewMsgpack(c echo.Context) error
	HandleToggleCategory(c echo.Context) error
	HandleDeleteView(c echo.Context) error
}

// UploadHandler handles upload flows
type UploadHandler interface {
	HandleCreateFlow(c echo.Context) error
	HandleGetFlow(c echo.Context) error
	HandleDrag(c echo.Context) error
	HandleSelectFile(c echo.Context) error
	HandleSubmit(c echo.Context) error
	HandleDeleteFlow(c echo.Context) error
}

// UploadSocketHandler carries upload flow events over a websocket
type UploadSocketHandler interface {
	HandleWebSocket(c echo.Context) error
}
