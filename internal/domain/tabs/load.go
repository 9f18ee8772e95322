package tabs

import (
	"context"

	"go.uber.org/zap"

	"github.com/qisqifen/trilium/internal/shared/notepath"
	"github.com/qisqifen/trilium/internal/shared/types"
)

// LoadTabs restores the persisted session, reconciled with urlTarget (a
// note path taken from the address fragment, or ""). Afterwards at least one
// tab exists and exactly one is active. Unreadable sessions and missing notes
// are dropped silently.
func (m *Manager) LoadTabs(ctx context.Context, urlTarget string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return ErrAlreadyLoaded
	}

	openTabs, err := m.session.Load(ctx)
	if err != nil {
		m.logger.Warn("Failed to read open tabs, starting fresh", zap.Error(err))
		openTabs = nil
	}
	if hoisted, err := m.session.LoadHoisted(ctx); err != nil {
		m.logger.Warn("Failed to read hoisted note", zap.Error(err))
	} else {
		m.hoistedNoteID = hoisted
	}

	if urlTarget != "" {
		openTabs = m.reconcileTarget(ctx, openTabs, urlTarget)
	}

	filtered := make([]types.TabState, 0, len(openTabs))
	for _, state := range openTabs {
		if m.noteExists(ctx, notepath.NoteID(state.NotePath)) {
			filtered = append(filtered, state)
		}
	}
	keepFirstActive(filtered)

	if m.mobile {
		active := filtered[:0]
		for _, state := range filtered {
			if state.Active {
				active = append(active, state)
			}
		}
		filtered = active
	}

	if len(filtered) == 0 {
		filtered = append(filtered, types.TabState{NotePath: types.RootNoteID, Active: true})
	}
	if !hasActive(filtered) {
		filtered[0].Active = true
	}

	err = m.saver.RunSilently(ctx, func(ctx context.Context) error {
		for _, state := range filtered {
			if _, err := m.openTabWithNote(ctx, state.NotePath, state.Active, state.TabID); err != nil {
				m.logger.Warn("Failed to restore tab",
					zap.String("note_path", state.NotePath),
					zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	m.loaded = true
	m.record("load")
	m.logger.Info("Tabs loaded",
		zap.Int("restored", len(filtered)),
		zap.String("active_tab_id", m.activeTabID),
		zap.String("hoisted_note_id", m.hoistedNoteID))
	return nil
}

// reconcileTarget makes the URL target the active record, reusing a record
// for the same note when there is one.
func (m *Manager) reconcileTarget(ctx context.Context, openTabs []types.TabState, target string) []types.TabState {
	noteID := notepath.NoteID(target)
	if noteID == "" || !m.noteExists(ctx, noteID) {
		return openTabs
	}

	for i := range openTabs {
		openTabs[i].Active = false
	}
	for i := range openTabs {
		if notepath.NoteID(openTabs[i].NotePath) == noteID {
			openTabs[i].Active = true
			return openTabs
		}
	}
	return append(openTabs, types.TabState{NotePath: target, Active: true})
}

// noteExists treats lookup failures as a missing note.
func (m *Manager) noteExists(ctx context.Context, noteID string) bool {
	if noteID == "" {
		return false
	}
	exists, err := m.tree.NoteExists(ctx, noteID)
	if err != nil {
		m.logger.Warn("Note existence check failed", zap.String("note_id", noteID), zap.Error(err))
		return false
	}
	return exists
}

func keepFirstActive(states []types.TabState) {
	seen := false
	for i := range states {
		if states[i].Active {
			if seen {
				states[i].Active = false
			}
			seen = true
		}
	}
}

func hasActive(states []types.TabState) bool {
	for _, s := range states {
		if s.Active {
			return true
		}
	}
	return false
}
