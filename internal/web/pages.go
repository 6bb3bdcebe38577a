package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kb-dashboard/backend/internal/graphview"
	"github.com/kb-dashboard/backend/internal/logger"
	"github.com/kb-dashboard/backend/internal/statsview"
	"github.com/kb-dashboard/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

type kbPage struct {
	Title     string
	Active    string
	Stats     statsview.Payload
	StyleJSON string
}

type uploadPage struct {
	Title       string
	Active      string
	MaxFileSize int64
	SizeMessage string
	TypeMessage string
}

// PageHandler renders the dashboard and upload pages.
type PageHandler struct {
	stats       statsview.Fetcher
	timeout     time.Duration
	loc         *time.Location
	maxFileSize int64
}

// NewPageHandler creates a page handler. The stats panel is rendered on the
// server from a single backend read per page load.
func NewPageHandler(stats statsview.Fetcher, timeout time.Duration, loc *time.Location, maxFileSize int64) *PageHandler {
	if maxFileSize <= 0 {
		maxFileSize = upload.MaxFileSize
	}
	return &PageHandler{
		stats:       stats,
		timeout:     timeout,
		loc:         loc,
		maxFileSize: maxFileSize,
	}
}

// RegisterRoutes registers the page routes and the static assets.
func (h *PageHandler) RegisterRoutes(e *echo.Echo) error {
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/kb")
	})
	e.GET("/kb", h.HandleKB)
	e.GET("/kb/upload", h.HandleUpload)
	return RegisterStaticRoutes(e)
}

// HandleKB renders the statistics and graph page.
func (h *PageHandler) HandleKB(c echo.Context) error {
	view := statsview.NewView(h.loc)
	if err := view.Load(c.Request().Context(), h.stats, h.timeout); err != nil {
		logger.Warn("Failed to load knowledge base stats", "status", view.Status(), "error", err)
	}

	style, err := json.Marshal(graphview.DefaultStyle())
	if err != nil {
		return err
	}

	return render(c, "kb.html", kbPage{
		Title:     "Dashboard",
		Active:    "kb",
		Stats:     view.Payload(),
		StyleJSON: string(style),
	})
}

// HandleUpload renders the upload page.
func (h *PageHandler) HandleUpload(c echo.Context) error {
	return render(c, "upload.html", uploadPage{
		Title:       "Upload",
		Active:      "upload",
		MaxFileSize: h.maxFileSize,
		SizeMessage: upload.SizeMessage(h.maxFileSize),
		TypeMessage: upload.MsgOnlyPDF,
	})
}

func render(c echo.Context, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
