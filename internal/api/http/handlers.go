package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/qisqifen/trilium/internal/domain/address"
	"github.com/qisqifen/trilium/internal/domain/session"
	"github.com/qisqifen/trilium/internal/domain/tabs"
	"github.com/qisqifen/trilium/internal/infrastructure/logging"
	"github.com/qisqifen/trilium/internal/infrastructure/monitoring"
	"github.com/qisqifen/trilium/internal/infrastructure/tracing"
	"github.com/qisqifen/trilium/internal/shared/types"
	"github.com/qisqifen/trilium/internal/shared/utils"
)

// Version is reported by the root endpoint.
const Version = "0.3.0"

// SessionInfo reports persistence timestamps.
type SessionInfo interface {
	Info() session.Info
}

// LocationSource exposes the mirrored address bar.
type LocationSource interface {
	Snapshot() address.Snapshot
}

// Deps are the collaborators of Handlers. Tabs is required.
type Deps struct {
	Tabs     *tabs.Manager
	Session  SessionInfo
	Location LocationSource
	Metrics  *monitoring.Metrics
	Logger   *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	tabs     *tabs.Manager
	session  SessionInfo
	location LocationSource
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		tabs:     deps.Tabs,
		session:  deps.Session,
		location: deps.Location,
		metrics:  deps.Metrics,
		logger:   logging.OrNop(deps.Logger),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Trilium Tab Session (Go)",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":       "healthy",
		"tabs":         h.tabs.Stats(),
		"save_pending": h.tabs.SavePending(),
	}
	if h.session != nil {
		resp["session"] = h.session.Info()
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// ListTabs lists all tabs in order
func (h *Handlers) ListTabs(c *gin.Context) {
	h.respondTabs(c, http.StatusOK)
}

// OpenTab opens a tab. Without a note path it opens an empty tab, which is
// activated unless activate is false.
func (h *Handlers) OpenTab(c *gin.Context) {
	var req types.OpenTabRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	if err := utils.ValidateNotePath(req.NotePath, false); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := utils.ValidateID(req.TabID, "tab_id", false); err != nil {
		badRequest(c, err.Error())
		return
	}

	activate := req.Activate == nil || *req.Activate
	ctx := c.Request.Context()

	var (
		tab *tabs.Tab
		err error
	)
	switch {
	case req.NotePath != "":
		tab, err = h.tabs.OpenTabWithNote(ctx, req.NotePath, activate, req.TabID)
	case activate:
		tab, err = h.tabs.OpenAndActivateEmptyTab(ctx)
	default:
		tab = h.tabs.OpenEmptyTab(req.TabID)
	}
	if err != nil {
		h.respondError(c, "open_tab", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"tab":     tab.View(),
	})
}

// ActivateTab makes a tab active
func (h *Handlers) ActivateTab(c *gin.Context) {
	tab, ok := h.tabParam(c)
	if !ok {
		return
	}

	tab.Activate()
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"active_tab_id": h.tabs.ActiveTabID(),
	})
}

// SwitchTab activates a tab, opening it if unknown, and points it at a note
func (h *Handlers) SwitchTab(c *gin.Context) {
	tabID := c.Param("id")
	if err := utils.ValidateID(tabID, "tab_id", true); err != nil {
		badRequest(c, err.Error())
		return
	}
	req, ok := bindNotePath(c)
	if !ok {
		return
	}

	if err := h.tabs.SwitchToTab(c.Request.Context(), tabID, req.NotePath); err != nil {
		h.respondError(c, "switch_tab", err)
		return
	}
	h.respondTabs(c, http.StatusOK)
}

// SetTabNote points an existing tab at a note
func (h *Handlers) SetTabNote(c *gin.Context) {
	tab, ok := h.tabParam(c)
	if !ok {
		return
	}
	req, ok := bindNotePath(c)
	if !ok {
		return
	}

	if err := tab.SetNote(c.Request.Context(), req.NotePath, true); err != nil {
		h.respondError(c, "set_note", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tab": tab.View()})
}

// ClearTabNote makes a tab empty
func (h *Handlers) ClearTabNote(c *gin.Context) {
	tab, ok := h.tabParam(c)
	if !ok {
		return
	}

	if err := tab.SetEmpty(c.Request.Context()); err != nil {
		h.respondError(c, "set_empty", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tab": tab.View()})
}

// RemoveTab closes a tab
func (h *Handlers) RemoveTab(c *gin.Context) {
	tab, ok := h.tabParam(c)
	if !ok {
		return
	}

	if err := h.tabs.RemoveTab(c.Request.Context(), tab.ID()); err != nil {
		h.respondError(c, "remove_tab", err)
		return
	}
	h.respondTabs(c, http.StatusOK)
}

// RemoveAllTabs closes every tab, or every tab but ?except=<id>
func (h *Handlers) RemoveAllTabs(c *gin.Context) {
	except := c.Query("except")
	if err := utils.ValidateID(except, "except", false); err != nil {
		badRequest(c, err.Error())
		return
	}

	var err error
	if except == "" {
		err = h.tabs.RemoveAllTabsCommand(c.Request.Context())
	} else {
		err = h.tabs.RemoveAllTabsExceptForThisCommand(c.Request.Context(), except)
	}
	if err != nil {
		h.respondError(c, "remove_all", err)
		return
	}
	h.respondTabs(c, http.StatusOK)
}

// CloseActiveTab closes the active tab
func (h *Handlers) CloseActiveTab(c *gin.Context) {
	if err := h.tabs.CloseActiveTabCommand(c.Request.Context()); err != nil {
		h.respondError(c, "close_active", err)
		return
	}
	h.respondTabs(c, http.StatusOK)
}

// NextTab activates the following tab
func (h *Handlers) NextTab(c *gin.Context) {
	h.tabs.ActivateNextTabCommand()
	h.respondTabs(c, http.StatusOK)
}

// PreviousTab activates the preceding tab
func (h *Handlers) PreviousTab(c *gin.Context) {
	h.tabs.ActivatePreviousTabCommand()
	h.respondTabs(c, http.StatusOK)
}

// ReorderTabs applies a new tab order
func (h *Handlers) ReorderTabs(c *gin.Context) {
	var req types.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "tabIdsInOrder is required")
		return
	}
	if err := utils.ValidateTabOrder(req.TabIDsInOrder); err != nil {
		badRequest(c, err.Error())
		return
	}

	h.tabs.TabReorderEvent(req.TabIDsInOrder)
	h.respondTabs(c, http.StatusOK)
}

// FocusNote activates the tab showing a note, or opens one
func (h *Handlers) FocusNote(c *gin.Context) {
	noteID := c.Param("noteId")
	if err := utils.ValidateNoteID(noteID, "note_id", true); err != nil {
		badRequest(c, err.Error())
		return
	}

	tab, err := h.tabs.ActivateOrOpenNote(c.Request.Context(), noteID)
	if err != nil {
		h.respondError(c, "focus_note", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "tab": tab.View()})
}

// Hoist changes the hoisted note
func (h *Handlers) Hoist(c *gin.Context) {
	var req types.HoistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "hoistedNoteId is required")
		return
	}
	if err := utils.ValidateNoteID(req.HoistedNoteID, "hoisted_note_id", true); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.tabs.HoistedNoteChangedEvent(c.Request.Context(), req.HoistedNoteID); err != nil {
		h.respondError(c, "hoist", err)
		return
	}
	h.respondTabs(c, http.StatusOK)
}

// FlushSession writes pending session state now
func (h *Handlers) FlushSession(c *gin.Context) {
	if err := h.tabs.BeforeUnloadEvent(c.Request.Context()); err != nil {
		h.respondError(c, "flush", err)
		return
	}

	resp := gin.H{"success": true}
	if h.session != nil {
		resp["session"] = h.session.Info()
	}
	c.JSON(http.StatusOK, resp)
}

// Location returns the mirrored address fragment and title
func (h *Handlers) Location(c *gin.Context) {
	if h.location == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not tracked"})
		return
	}
	c.JSON(http.StatusOK, h.location.Snapshot())
}

// MetricsSummary returns the JSON metrics snapshot
func (h *Handlers) MetricsSummary(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func (h *Handlers) respondTabs(c *gin.Context, status int) {
	c.JSON(status, gin.H{
		"tabs":            h.tabs.Views(),
		"active_tab_id":   h.tabs.ActiveTabID(),
		"hoisted_note_id": h.tabs.HoistedNoteID(),
		"stats":           h.tabs.Stats(),
	})
}

// tabParam resolves the :id param to a tab, responding when it cannot.
func (h *Handlers) tabParam(c *gin.Context) (*tabs.Tab, bool) {
	tabID := c.Param("id")
	if err := utils.ValidateID(tabID, "tab_id", true); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	tab, ok := h.tabs.TabContextByID(tabID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "tab not found", "tab_id": tabID})
		return nil, false
	}
	return tab, true
}

func (h *Handlers) respondError(c *gin.Context, op string, err error) {
	_ = c.Error(err)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tabs.ErrTabNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	fields := append([]zap.Field{zap.String("op", op), zap.Error(err)}, tracing.Fields(c.Request.Context())...)
	h.logger.Warn("Tab operation failed", fields...)

	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func bindNotePath(c *gin.Context) (types.NotePathRequest, bool) {
	var req types.NotePathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "notePath is required")
		return req, false
	}
	if err := utils.ValidateNotePath(req.NotePath, true); err != nil {
		badRequest(c, err.Error())
		return req, false
	}
	return req, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
