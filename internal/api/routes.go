// routes.go - Route registration helpers
package api

import (
	"time"

	"github.com/kb-dashboard/backend/internal/graphview"
	"github.com/kb-dashboard/backend/internal/session"
	"github.com/kb-dashboard/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Backend       Backend
	Store         upload.CandidateStore
	GraphViews    *session.Manager[*graphview.View]
	UploadFlows   *session.Manager[*upload.Flow]
	ReadTimeout   time.Duration
	UploadTimeout time.Duration
	MaxFileSize   int64
	WSBufferSize  int
	AllowOrigins  []string
	Location      *time.Location
	Version       string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Stats     StatsHandler
	Graph     GraphHandler
	Upload    UploadHandler
	WebSocket UploadSocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.GraphViews, deps.UploadFlows),
		Stats:     NewStatsHandler(deps.Backend, deps.ReadTimeout, deps.Location),
		Graph:     NewGraphHandler(deps.Backend, deps.GraphViews, deps.ReadTimeout),
		Upload:    NewUploadHandler(deps.Store, deps.Backend, deps.UploadFlows, deps.MaxFileSize, deps.UploadTimeout),
		WebSocket: NewWebSocketHandler(deps.UploadFlows, deps.WSBufferSize, deps.AllowOrigins),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/stats", handlers.Stats.HandleGetStats)

	// Graph view routes
	graphGroup := apiGroup.Group("/graph/views")
	graphGroup.POST("", handlers.Graph.HandleCreateView)
	graphGroup.GET("/:id", handlers.Graph.HandleGetView)
	graphGroup.GET("/:id/msgpack", handlers.Graph.HandleGetViewMsgpack)
	graphGroup.POST("/:id/toggle", handlers.Graph.HandleToggleCategory)
	graphGroup.DELETE("/:id", handlers.Graph.HandleDeleteView)

	// Upload flow routes
	uploadGroup := apiGroup.Group("/uploads")
	uploadGroup.POST("", handlers.Upload.HandleCreateFlow)
	uploadGroup.GET("/:id", handlers.Upload.HandleGetFlow)
	uploadGroup.POST("/:id/drag", handlers.Upload.HandleDrag)
	uploadGroup.POST("/:id/file", handlers.Upload.HandleSelectFile)
	uploadGroup.POST("/:id/submit", handlers.Upload.HandleSubmit)
	uploadGroup.DELETE("/:id", handlers.Upload.HandleDeleteFlow)

	apiGroup.GET("/ws/uploads/:id", handlers.WebSocket.HandleWebSocket)
}

// SetupMiddleware installs the error handler, the body validator and
// bearer token forwarding.
func SetupMiddleware(e *echo.Echo, debug bool, authCookie string, forwardAuth bool) {
	e.HTTPErrorHandler = NewErrorHandler(debug)
	e.Validator = NewValidator()
	if forwardAuth {
		e.Use(ForwardAuth(authCookie))
	}
}
