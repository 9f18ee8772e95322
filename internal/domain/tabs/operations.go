package tabs

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/qisqifen/trilium/internal/shared/notepath"
	"github.com/qisqifen/trilium/internal/shared/types"
)

// SwitchToTab activates tabID, opening it if unknown, then points it at
// notePath. Activation comes first so listeners see the active tab while
// the note resolves.
func (m *Manager) SwitchToTab(ctx context.Context, tabID, notePath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.tabByID(tabID)
	if t == nil {
		t = m.openEmptyTab(tabID)
	}
	m.activateTab(t.id, true)
	m.record("switch")
	return t.setNote(ctx, notePath, true)
}

// OpenAndActivateEmptyTab opens a tab, activates it and marks it empty.
func (m *Manager) OpenAndActivateEmptyTab(ctx context.Context) (*Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.openAndActivateEmptyTab()
	m.record("open_empty")
	return t, nil
}

// OpenNewTabCommand is OpenAndActivateEmptyTab.
func (m *Manager) OpenNewTabCommand(ctx context.Context) (*Tab, error) {
	return m.OpenAndActivateEmptyTab(ctx)
}

// OpenEmptyTab appends a tab without activating it. An empty tabID, or one
// already in use, gets a generated id.
func (m *Manager) OpenEmptyTab(tabID string) *Tab {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.openEmptyTab(tabID)
	m.record("open")
	return t
}

// OpenTabWithNote opens a tab on notePath. With activate, the tab becomes
// active and a single tabNoteSwitchedAndActivated notification replaces the
// separate switched and activeTabChanged ones.
func (m *Manager) OpenTabWithNote(ctx context.Context, notePath string, activate bool, tabID string) (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.openTabWithNote(ctx, notePath, activate, tabID)
	m.record("open")
	return t, err
}

// ActivateOrOpenNote activates the first tab showing noteID, or opens a new
// tab on it.
func (m *Manager) ActivateOrOpenNote(ctx context.Context, noteID string) (*Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tabs {
		if t.note != nil && t.note.NoteID == noteID {
			m.activateTab(t.id, true)
			m.record("focus")
			return t, nil
		}
	}

	t := m.openEmptyTab("")
	m.record("focus")
	return t, t.setNote(ctx, noteID, true)
}

// ActivateTab makes tabID active. Unknown ids and the already active tab are
// ignored.
func (m *Manager) ActivateTab(tabID string, notify bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tabByID(tabID) == nil {
		m.logger.Debug("Ignoring activation of unknown tab", zap.String("tab_id", tabID))
		return
	}
	m.activateTab(tabID, notify)
	m.record("activate")
}

// RemoveTab closes tabID. The last tab is replaced by a new empty tab; an
// active tab hands activation to its successor first.
func (m *Manager) RemoveTab(ctx context.Context, tabID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeTab(ctx, tabID)
	return nil
}

// TabReorderEvent sorts the tabs by tabIDsInOrder. Tabs missing from the
// order keep their relative order after all listed tabs.
func (m *Manager) TabReorderEvent(tabIDsInOrder []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order := make(map[string]int, len(tabIDsInOrder))
	for i, tabID := range tabIDsInOrder {
		if _, dup := order[tabID]; !dup {
			order[tabID] = i
		}
	}
	rank := func(t *Tab) int {
		if i, ok := order[t.id]; ok {
			return i
		}
		return len(tabIDsInOrder)
	}

	slices.SortStableFunc(m.tabs, func(a, b *Tab) int {
		return cmp.Compare(rank(a), rank(b))
	})
	m.saver.Schedule()
	m.record("reorder")
}

// ActivateNextTabCommand activates the following tab, wrapping around.
func (m *Manager) ActivateNextTabCommand() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.activateNext()
	m.record("next")
}

// ActivatePreviousTabCommand activates the preceding tab, wrapping around.
func (m *Manager) ActivatePreviousTabCommand() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.tabs) == 0 {
		return
	}
	idx := m.indexOf(m.activeTabID)
	prev := len(m.tabs) - 1
	if idx > 0 {
		prev = idx - 1
	}
	m.activateTab(m.tabs[prev].id, true)
	m.record("previous")
}

// CloseActiveTabCommand removes the active tab.
func (m *Manager) CloseActiveTabCommand(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeTab(ctx, m.activeTabID)
	return nil
}

// RemoveAllTabsCommand removes every tab; one new empty tab remains.
func (m *Manager) RemoveAllTabsCommand(ctx context.Context) error {
	return m.removeAllExcept(ctx, "")
}

// RemoveAllTabsExceptForThisCommand removes every tab but tabID.
func (m *Manager) RemoveAllTabsExceptForThisCommand(ctx context.Context, tabID string) error {
	return m.removeAllExcept(ctx, tabID)
}

// HoistedNoteChangedEvent records the new hoisting root and closes every
// non-empty tab whose path does not pass through it. Hoisting to root
// closes nothing. The returned error reports only a failed settings write.
func (m *Manager) HoistedNoteChangedEvent(ctx context.Context, hoistedNoteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hoistedNoteID = hoistedNoteID
	saveErr := m.session.SaveHoisted(ctx, hoistedNoteID)
	if saveErr != nil {
		m.logger.Warn("Failed to store hoisted note", zap.String("note_id", hoistedNoteID), zap.Error(saveErr))
	}

	if hoistedNoteID == types.RootNoteID {
		return saveErr
	}

	for _, t := range slices.Clone(m.tabs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.notePath != "" && !notepath.Contains(t.notePath, hoistedNoteID) {
			m.removeTab(ctx, t.id)
		}
	}
	m.record("hoist")
	return saveErr
}

// TabNoteSwitchedEvent reacts to a tab having changed note.
func (m *Manager) TabNoteSwitchedEvent(tabID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tabNoteSwitched(tabID)
}

func (m *Manager) removeAllExcept(ctx context.Context, keepTabID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.tabs))
	for _, t := range m.tabs {
		if t.id != keepTabID {
			ids = append(ids, t.id)
		}
	}
	for _, tabID := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.removeTab(ctx, tabID)
	}
	return nil
}

func (m *Manager) openEmptyTab(tabID string) *Tab {
	if tabID == "" || m.tabByID(tabID) != nil {
		tabID = m.newTabID()
	}

	t := &Tab{manager: m, id: tabID}
	m.tabs = append(m.tabs, t)
	m.publish(Notification{Type: NewTabOpened, TabID: t.id})
	return t
}

func (m *Manager) openAndActivateEmptyTab() *Tab {
	t := m.openEmptyTab("")
	m.activateTab(t.id, true)
	t.setEmpty()
	return t
}

func (m *Manager) openTabWithNote(ctx context.Context, notePath string, activate bool, tabID string) (*Tab, error) {
	t := m.openEmptyTab(tabID)

	err := t.setNote(ctx, notePath, !activate)

	if activate {
		m.activateTab(t.id, false)
		m.publish(Notification{Type: TabNoteSwitchedAndActivated, TabID: t.id, NotePath: notePath})
	}
	return t, err
}

func (m *Manager) activateTab(tabID string, notify bool) {
	if tabID == m.activeTabID {
		return
	}

	m.activeTabID = tabID
	if notify {
		m.publish(Notification{Type: ActiveTabChanged, TabID: tabID})
	}
	m.saver.Schedule()
	m.syncAddress()
}

func (m *Manager) activateNext() {
	if len(m.tabs) == 0 {
		return
	}
	idx := m.indexOf(m.activeTabID)
	m.activateTab(m.tabs[(idx+1)%len(m.tabs)].id, true)
}

func (m *Manager) removeTab(ctx context.Context, tabID string) {
	t := m.tabByID(tabID)
	if t == nil {
		return
	}

	m.publish(Notification{Type: BeforeTabRemove, TabID: tabID})
	for _, hook := range m.hooks {
		if err := hook(ctx, tabID); err != nil {
			m.logger.Warn("Before-remove hook failed", zap.String("tab_id", tabID), zap.Error(err))
		}
	}

	if len(m.tabs) <= 1 {
		m.openAndActivateEmptyTab()
	} else if t.isActive() {
		m.activateNext()
	}

	m.tabs = slices.DeleteFunc(m.tabs, func(other *Tab) bool { return other.id == tabID })
	m.publish(Notification{Type: TabRemoved, TabID: tabID})
	m.saver.Schedule()
	m.record("remove")
}

func (m *Manager) tabNoteSwitched(tabID string) {
	if tabID == m.activeTabID {
		m.syncAddress()
	}
	m.saver.Schedule()
}
