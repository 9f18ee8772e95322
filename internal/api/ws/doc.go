// Package ws streams tab notifications to the front end over WebSocket.
//
// Each connection subscribes to the notification bus and receives every
// tab notification as it is published. Slow connections lose messages
// rather than hold up the manager.
//
// Message Types (Client → Server):
//   - tabNoteSwitched: a tab changed note on the client side
//   - tabReorder: the tab strip was reordered (tabIdsInOrder)
//   - hoistedNoteChanged: the hoisting root changed (hoistedNoteId)
//   - beforeUnload: the page is going away; flush the session
//   - ping: keep-alive ping
//
// Message Types (Server → Client):
//   - system: connection established, with the current tab list
//   - newTabOpened, activeTabChanged, tabNoteSwitched,
//     tabNoteSwitchedAndActivated, beforeTabRemove, tabRemoved
//   - flushed: reply to beforeUnload
//   - pong: reply to ping
//   - error: the last inbound message failed
//
// Example Usage:
//
//	handler := ws.NewHandler(ws.Deps{Tabs: manager, Bus: bus, Logger: logger})
//	router.GET("/stream", handler.HandleConnection)
package ws
