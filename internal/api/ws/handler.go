package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qisqifen/trilium/internal/domain/tabs"
	"github.com/qisqifen/trilium/internal/infrastructure/events"
	"github.com/qisqifen/trilium/internal/infrastructure/logging"
	"github.com/qisqifen/trilium/internal/infrastructure/monitoring"
	"github.com/qisqifen/trilium/internal/infrastructure/tracing"
	"github.com/qisqifen/trilium/internal/shared/types"
	"github.com/qisqifen/trilium/internal/shared/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	eventTimeout   = 30 * time.Second
)

// Message is a server to client frame.
type Message struct {
	Type         string          `json:"type"`
	TabID        string          `json:"tabId,omitempty"`
	NotePath     string          `json:"notePath,omitempty"`
	Message      string          `json:"message,omitempty"`
	ConnectionID string          `json:"connectionId,omitempty"`
	Tabs         []types.TabView `json:"tabs,omitempty"`
	ActiveTabID  string          `json:"activeTabId,omitempty"`
	Timestamp    int64           `json:"timestamp"`
}

// Deps are the collaborators of a Handler. Tabs and Bus are required.
type Deps struct {
	Tabs    *tabs.Manager
	Bus     *events.Bus[tabs.Notification]
	Metrics *monitoring.Metrics
	Tracer  *tracing.Tracer
	Logger  *zap.Logger
	// Buffer is the per-connection notification queue; events.DefaultBuffer when zero.
	Buffer int
}

// Handler manages WebSocket connections
type Handler struct {
	tabs     *tabs.Manager
	bus      *events.Bus[tabs.Notification]
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	logger   *zap.Logger
	buffer   int
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(deps Deps) *Handler {
	return &Handler{
		tabs:    deps.Tabs,
		bus:     deps.Bus,
		metrics: deps.Metrics,
		tracer:  deps.Tracer,
		logger:  logging.OrNop(deps.Logger),
		buffer:  deps.Buffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS middleware guards the HTTP side
			},
		},
	}
}

// conn serializes writes to one WebSocket.
type conn struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cn := &conn{id: uuid.NewString(), ws: wsConn}
	logger := h.logger.With(zap.String("conn_id", cn.id))

	notifications, unsubscribe := h.bus.Subscribe(h.buffer)
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	logger.Info("WebSocket connected")

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeLoop(cn, notifications, done, logger)
	}()

	defer func() {
		close(done)
		unsubscribe()
		wg.Wait()
		_ = wsConn.Close()
		if h.metrics != nil {
			h.metrics.DecWSConnections()
		}
		logger.Info("WebSocket disconnected")
	}()

	h.send(cn, Message{
		Type:         "system",
		Message:      "connected",
		ConnectionID: cn.id,
		Tabs:         h.tabs.Views(),
		ActiveTabID:  h.tabs.ActiveTabID(),
	})

	wsConn.SetReadLimit(maxMessageSize)
	_ = wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		return wsConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	reqCtx := c.Request.Context()
	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg types.WSMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.sendError(cn, "malformed message")
			continue
		}
		h.handleMessage(reqCtx, cn, msg, logger)
	}
}

func (h *Handler) handleMessage(parent context.Context, cn *conn, msg types.WSMessage, logger *zap.Logger) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage("inbound", msg.Type)
	}

	ctx, cancel := context.WithTimeout(parent, eventTimeout)
	defer cancel()

	var span *tracing.Span
	if h.tracer != nil {
		span, ctx = h.tracer.StartSpan(ctx, "ws."+msg.Type)
		span.SetTag("conn_id", cn.id)
	}

	err := h.dispatch(ctx, cn, msg)
	if err != nil {
		logger.Warn("WebSocket message failed",
			append([]zap.Field{zap.String("type", msg.Type), zap.Error(err)}, tracing.Fields(ctx)...)...)
		h.sendError(cn, err.Error())
	}

	if span != nil {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
		h.tracer.Submit(span)
	}
}

func (h *Handler) dispatch(ctx context.Context, cn *conn, msg types.WSMessage) error {
	switch msg.Type {
	case "tabNoteSwitched":
		if err := utils.ValidateID(msg.TabID, "tabId", true); err != nil {
			return err
		}
		h.tabs.TabNoteSwitchedEvent(msg.TabID)
	case "tabReorder":
		if err := utils.ValidateTabOrder(msg.TabIDsInOrder); err != nil {
			return err
		}
		h.tabs.TabReorderEvent(msg.TabIDsInOrder)
	case "hoistedNoteChanged":
		if err := utils.ValidateNoteID(msg.HoistedNoteID, "hoistedNoteId", true); err != nil {
			return err
		}
		return h.tabs.HoistedNoteChangedEvent(ctx, msg.HoistedNoteID)
	case "beforeUnload":
		if err := h.tabs.BeforeUnloadEvent(ctx); err != nil {
			return err
		}
		h.send(cn, Message{Type: "flushed"})
	case "ping":
		h.send(cn, Message{Type: "pong"})
	default:
		h.sendError(cn, "unknown message type")
	}
	return nil
}

func (h *Handler) writeLoop(cn *conn, notifications <-chan tabs.Notification, done <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-notifications:
			if !ok {
				return
			}
			if err := h.send(cn, Message{Type: string(n.Type), TabID: n.TabID, NotePath: n.NotePath}); err != nil {
				logger.Debug("Notification write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			cn.writeMu.Lock()
			_ = cn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			err := cn.ws.WriteMessage(websocket.PingMessage, nil)
			cn.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *Handler) send(cn *conn, msg Message) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}

	cn.writeMu.Lock()
	defer cn.writeMu.Unlock()

	_ = cn.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := cn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	if h.metrics != nil {
		h.metrics.RecordWSMessage("outbound", msg.Type)
	}
	return nil
}

func (h *Handler) sendError(cn *conn, msg string) error {
	return h.send(cn, Message{Type: "error", Message: msg})
}
