package tabs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/qisqifen/trilium/internal/shared/notepath"
	"github.com/qisqifen/trilium/internal/shared/types"
)

// Tab is one open tab. Its fields are owned by the Manager and guarded by
// the manager's lock; the exported methods take that lock.
type Tab struct {
	manager  *Manager
	id       string
	notePath string
	noteID   string
	note     *types.Note
}

// ID returns the tab id. It never changes.
func (t *Tab) ID() string {
	return t.id
}

// NotePath returns the note path the tab shows, or "" for an empty tab.
func (t *Tab) NotePath() string {
	t.manager.mu.RLock()
	defer t.manager.mu.RUnlock()
	return t.notePath
}

// NoteID returns the id of the note the tab shows.
func (t *Tab) NoteID() string {
	t.manager.mu.RLock()
	defer t.manager.mu.RUnlock()
	return t.noteID
}

// Note returns the resolved note, or nil.
func (t *Tab) Note() *types.Note {
	t.manager.mu.RLock()
	defer t.manager.mu.RUnlock()
	if t.note == nil {
		return nil
	}
	n := *t.note
	return &n
}

// IsActive reports whether this is the manager's active tab.
func (t *Tab) IsActive() bool {
	t.manager.mu.RLock()
	defer t.manager.mu.RUnlock()
	return t.isActive()
}

// SetNote points the tab at notePath. Paths whose note does not exist, and
// the path already shown, are ignored. With triggerSwitchEvent a
// tabNoteSwitched notification is raised.
func (t *Tab) SetNote(ctx context.Context, notePath string, triggerSwitchEvent bool) error {
	t.manager.mu.Lock()
	defer t.manager.mu.Unlock()

	if !t.manager.owns(t) {
		return fmt.Errorf("%w: %s", ErrTabNotFound, t.id)
	}
	return t.setNote(ctx, notePath, triggerSwitchEvent)
}

// SetEmpty clears the tab's note on purpose.
func (t *Tab) SetEmpty(ctx context.Context) error {
	t.manager.mu.Lock()
	defer t.manager.mu.Unlock()

	if !t.manager.owns(t) {
		return fmt.Errorf("%w: %s", ErrTabNotFound, t.id)
	}
	t.setEmpty()
	return nil
}

// TabState returns the persisted record for the tab; false for empty tabs.
func (t *Tab) TabState() (types.TabState, bool) {
	t.manager.mu.RLock()
	defer t.manager.mu.RUnlock()
	return t.tabState()
}

// View returns a read model of the tab.
func (t *Tab) View() types.TabView {
	t.manager.mu.RLock()
	defer t.manager.mu.RUnlock()
	return t.view()
}

// Activate makes this the active tab.
func (t *Tab) Activate() {
	t.manager.ActivateTab(t.id, true)
}

// The methods below must be called with manager.mu held.

func (t *Tab) isActive() bool {
	return t.manager.activeTabID == t.id
}

func (t *Tab) setNote(ctx context.Context, inputPath string, triggerSwitchEvent bool) error {
	m := t.manager

	noteID := notepath.NoteID(inputPath)
	if noteID == "" {
		m.logger.Debug("Ignoring empty note path", zap.String("tab_id", t.id))
		return nil
	}

	exists, err := m.tree.NoteExists(ctx, noteID)
	if err != nil {
		return fmt.Errorf("failed to check note %s: %w", noteID, err)
	}
	if !exists {
		m.logger.Debug("Ignoring missing note",
			zap.String("tab_id", t.id),
			zap.String("note_id", noteID))
		return nil
	}

	resolved := notepath.Join(notepath.Segments(inputPath)...)
	if resolved == t.notePath {
		return nil
	}

	t.notePath = resolved
	t.noteID = noteID
	t.note = nil

	note, err := m.tree.GetNote(ctx, noteID)
	if err != nil {
		m.logger.Warn("Failed to resolve note",
			zap.String("tab_id", t.id),
			zap.String("note_id", noteID),
			zap.Error(err))
	}
	t.note = note

	if triggerSwitchEvent {
		m.publish(Notification{Type: TabNoteSwitched, TabID: t.id, NotePath: resolved})
		m.tabNoteSwitched(t.id)
	}
	return nil
}

func (t *Tab) setEmpty() {
	t.notePath = ""
	t.noteID = ""
	t.note = nil

	t.manager.publish(Notification{Type: TabNoteSwitched, TabID: t.id})
	t.manager.tabNoteSwitched(t.id)
}

func (t *Tab) tabState() (types.TabState, bool) {
	if t.notePath == "" {
		return types.TabState{}, false
	}
	return types.TabState{
		NotePath: t.notePath,
		Active:   t.isActive(),
		TabID:    t.id,
	}, true
}

func (t *Tab) view() types.TabView {
	v := types.TabView{
		TabID:    t.id,
		NotePath: t.notePath,
		NoteID:   t.noteID,
		Active:   t.isActive(),
	}
	if t.note != nil {
		v.Title = t.note.Title
	}
	return v
}
