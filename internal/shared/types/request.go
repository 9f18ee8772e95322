package types

// OpenTabRequest opens a tab, optionally bound to a note
type OpenTabRequest struct {
	NotePath string `json:"notePath"`
	Activate *bool  `json:"activate,omitempty"`
	TabID    string `json:"tabId,omitempty"`
}

// NotePathRequest carries a note path for switch/set operations
type NotePathRequest struct {
	NotePath string `json:"notePath" binding:"required"`
}

// ReorderRequest carries the new tab order
type ReorderRequest struct {
	TabIDsInOrder []string `json:"tabIdsInOrder" binding:"required"`
}

// HoistRequest changes the hoisted note
type HoistRequest struct {
	HoistedNoteID string `json:"hoistedNoteId" binding:"required"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type          string   `json:"type"`
	TabID         string   `json:"tabId,omitempty"`
	NotePath      string   `json:"notePath,omitempty"`
	TabIDsInOrder []string `json:"tabIdsInOrder,omitempty"`
	HoistedNoteID string   `json:"hoistedNoteId,omitempty"`
	Message       string   `json:"message,omitempty"`
}
