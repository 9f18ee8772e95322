package types

// RootNoteID is the id of the top of the note tree
const RootNoteID = "root"

// TabState is the persisted record of one open tab
type TabState struct {
	NotePath string `json:"notePath"`
	Active   bool   `json:"active"`
	TabID    string `json:"tabId,omitempty"`
}

// Note is the resolved note a tab points at
type Note struct {
	NoteID string `json:"noteId" yaml:"noteId"`
	Title  string `json:"title" yaml:"title"`
	Type   string `json:"type" yaml:"type"`
}

// TabView is the read model of a tab returned by the API
type TabView struct {
	TabID    string `json:"tabId"`
	NotePath string `json:"notePath"`
	NoteID   string `json:"noteId,omitempty"`
	Title    string `json:"title,omitempty"`
	Active   bool   `json:"active"`
}

// Stats contains tab manager statistics
type Stats struct {
	TotalTabs     int    `json:"total_tabs"`
	EmptyTabs     int    `json:"empty_tabs"`
	ActiveTabID   string `json:"active_tab_id,omitempty"`
	HoistedNoteID string `json:"hoisted_note_id"`
	Loaded        bool   `json:"loaded"`
}
