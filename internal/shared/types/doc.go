// Package types provides shared data structures for the tab session service.
//
// Core Types:
//   - TabState: Persisted record of one open tab ({notePath, active, tabId})
//   - Note: Resolved note referenced by a tab
//   - TabView: Read model of a tab for API responses
//   - Stats: Tab manager statistics
//
// Request Types:
//   - OpenTabRequest, NotePathRequest: Tab commands
//   - ReorderRequest, HoistRequest: Collection-wide events
//   - WSMessage: WebSocket communication
//
// Example Usage:
//
//	state := types.TabState{
//	    NotePath: "root/abc123",
//	    Active:   true,
//	    TabID:    string(id.NewTabID()),
//	}
package types
