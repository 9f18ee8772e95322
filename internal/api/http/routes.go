package http

import "github.com/gin-gonic/gin"

// Register mounts the tab API on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// Tabs
	r.GET("/tabs", h.ListTabs)
	r.POST("/tabs", h.OpenTab)
	r.DELETE("/tabs", h.RemoveAllTabs)
	r.POST("/tabs/close-active", h.CloseActiveTab)
	r.POST("/tabs/next", h.NextTab)
	r.POST("/tabs/previous", h.PreviousTab)
	r.PUT("/tabs/order", h.ReorderTabs)
	r.POST("/tabs/:id/activate", h.ActivateTab)
	r.POST("/tabs/:id/switch", h.SwitchTab)
	r.PUT("/tabs/:id/note", h.SetTabNote)
	r.DELETE("/tabs/:id/note", h.ClearTabNote)
	r.DELETE("/tabs/:id", h.RemoveTab)

	// Notes and hoisting
	r.POST("/notes/:noteId/focus", h.FocusNote)
	r.PUT("/hoist", h.Hoist)

	// Session and address
	r.POST("/session/flush", h.FlushSession)
	r.GET("/location", h.Location)

	// Front-end logs and metrics summary
	r.POST("/logs", h.StreamLogs)
	r.GET("/metrics/summary", h.MetricsSummary)
}
