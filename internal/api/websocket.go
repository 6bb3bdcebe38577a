package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kb-dashboard/backend/internal/logger"
	"github.com/kb-dashboard/backend/internal/session"
	"github.com/kb-dashboard/backend/internal/upload"
	"github.com/labstack/echo/v4"
)

// WebSocket message types for the upload flow
const (
	// Client -> Server messages
	MsgTypeDragEnter = "drag:enter"
	MsgTypeDragLeave = "drag:leave"
	MsgTypeSubmit    = "submit"
	MsgTypeGetState  = "state:get"
	MsgTypePing      = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeState     = "state"
	MsgTypeRedirect  = "redirect"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// WSMessage is the envelope of every websocket frame
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSRedirectPayload tells the page where to navigate
type WSRedirectPayload struct {
	To     string `json:"to"`
	TaskID string `json:"taskId,omitempty"`
	DocID  int64  `json:"docId,omitempty"`
}

// WSErrorResponse is the payload of an error frame
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler carries upload flow events over a websocket
type WebSocketHandler struct {
	flows    *session.Manager[*upload.Flow]
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new websocket handler. Handshakes are
// accepted from the page's own origin and from allowOrigins.
func NewWebSocketHandler(flows *session.Manager[*upload.Flow], bufferSize int, allowOrigins []string) *WebSocketHandler {
	if bufferSize <= 0 {
		bufferSize = 64 * 1024
	}
	return &WebSocketHandler{
		flows: flows,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin(allowOrigins),
			ReadBufferSize:  bufferSize,
			WriteBufferSize: bufferSize,
		},
	}
}

// checkOrigin allows requests without an Origin header, same-host origins,
// and exact matches in allowed. Wildcard entries are not honored here.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimRight(a, "/"), origin) {
				return true
			}
		}
		return false
	}
}

// wsConn serializes writes from the read loop and submit goroutines.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
	id string
}

func (c *wsConn) send(msgType string, payload interface{}) {
	msg := WSMessage{
		Type:      msgType,
		ID:        c.id,
		Timestamp: time.Now().UnixMilli(),
	}
	if payload != nil {
		msg.Payload = mustJSON(payload)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		logger.Debug("WebSocket write failed", "flow", c.id, "error", err)
	}
}

// HandleWebSocket upgrades the connection and relays flow events until the
// client disconnects.
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	flow, err := lookupFlow(c, wsh.flows)
	if err != nil {
		return err
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	conn := &wsConn{ws: ws, id: flow.ID()}
	ctx := context.WithoutCancel(c.Request().Context())

	var wg sync.WaitGroup
	defer wg.Wait()

	logger.Debug("WebSocket connected", "flow", flow.ID())
	conn.send(MsgTypeConnected, flow.Snapshot())

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket connection error", "flow", flow.ID(), "error", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			conn.send(MsgTypePong, nil)
		case MsgTypeDragEnter:
			conn.send(MsgTypeState, flow.SetDragging(true))
		case MsgTypeDragLeave:
			conn.send(MsgTypeState, flow.SetDragging(false))
		case MsgTypeGetState:
			conn.send(MsgTypeState, flow.Snapshot())
		case MsgTypeSubmit:
			wg.Add(1)
			go func() {
				defer wg.Done()
				wsh.submit(ctx, conn, flow)
			}()
		default:
			conn.send(MsgTypeError, WSErrorResponse{Message: "Unknown message type: " + msg.Type, Code: "INVALID_TYPE"})
		}
	}

	logger.Debug("WebSocket disconnected", "flow", flow.ID())
	return nil
}

func (wsh *WebSocketHandler) submit(ctx context.Context, conn *wsConn, flow *upload.Flow) {
	snap, submitted := flow.Submit(ctx)
	conn.send(MsgTypeState, snap)
	if !submitted {
		return
	}
	if snap.NavigateTo != "" {
		conn.send(MsgTypeRedirect, WSRedirectPayload{To: snap.NavigateTo, TaskID: snap.TaskID, DocID: snap.DocID})
		return
	}
	conn.send(MsgTypeError, WSErrorResponse{Message: snap.Error, Code: "UPLOAD_FAILED"})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
