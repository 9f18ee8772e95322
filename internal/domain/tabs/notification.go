package tabs

import "context"

// NotificationType names a tab lifecycle notification.
type NotificationType string

const (
	NewTabOpened                NotificationType = "newTabOpened"
	ActiveTabChanged            NotificationType = "activeTabChanged"
	TabNoteSwitched             NotificationType = "tabNoteSwitched"
	TabNoteSwitchedAndActivated NotificationType = "tabNoteSwitchedAndActivated"
	TabRemoved                  NotificationType = "tabRemoved"
	BeforeTabRemove             NotificationType = "beforeTabRemove"
)

// Notification is published on the bus after the state change it describes.
type Notification struct {
	Type     NotificationType `json:"type"`
	TabID    string           `json:"tabId,omitempty"`
	NotePath string           `json:"notePath,omitempty"`
}

// BeforeRemoveHook is awaited before a tab is removed. Hooks run while the
// manager is busy and must not call back into it. A returned error is logged;
// it does not stop the removal.
type BeforeRemoveHook func(ctx context.Context, tabID string) error

// Publisher receives fire-and-forget notifications. It must not block.
type Publisher interface {
	Publish(n Notification)
}
