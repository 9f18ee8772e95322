package tabs

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qisqifen/trilium/internal/domain/address"
	"github.com/qisqifen/trilium/internal/infrastructure/debounce"
	"github.com/qisqifen/trilium/internal/infrastructure/logging"
	"github.com/qisqifen/trilium/internal/infrastructure/monitoring"
	"github.com/qisqifen/trilium/internal/shared/id"
	"github.com/qisqifen/trilium/internal/shared/types"
)

var (
	ErrAlreadyLoaded = errors.New("tabs already loaded")
	ErrTabNotFound   = errors.New("tab not found")
)

// NoteTree answers whether notes exist and resolves them.
type NoteTree interface {
	NoteExists(ctx context.Context, noteID string) (bool, error)
	GetNote(ctx context.Context, noteID string) (*types.Note, error)
}

// SessionStore persists the tab list and the hoisted note.
type SessionStore interface {
	Load(ctx context.Context) ([]types.TabState, error)
	Save(ctx context.Context, states []types.TabState) error
	LoadHoisted(ctx context.Context) (string, error)
	SaveHoisted(ctx context.Context, noteID string) error
}

// AddressSync mirrors the active tab into the address bar.
type AddressSync interface {
	Sync(target address.Target) bool
}

// Deps are the collaborators of a Manager. Tree and Session are required.
type Deps struct {
	Tree      NoteTree
	Session   SessionStore
	Address   AddressSync
	Publisher Publisher
	// Mobile restores only the active tab.
	Mobile       bool
	SaveInterval time.Duration
	Clock        debounce.Clock
	Logger       *zap.Logger
	Metrics      *monitoring.Metrics
	// NewTabID overrides tab id generation.
	NewTabID func() string
}

// Manager owns the ordered tab collection and the active tab.
//
// Every exported operation holds mu for its whole duration, collaborator
// calls included, so operations never interleave. Methods without a lock
// in their doc comment must be called with mu held.
type Manager struct {
	mu            sync.RWMutex
	tabs          []*Tab // Protected by mu
	activeTabID   string // Protected by mu
	hoistedNoteID string // Protected by mu
	loaded        bool   // Protected by mu
	hooks         []BeforeRemoveHook

	tree      NoteTree
	session   SessionStore
	address   AddressSync
	publisher Publisher
	mobile    bool
	newTabID  func() string
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	saver     *debounce.Scheduler
}

// NewManager creates a manager with no tabs. Call LoadTabs before use.
func NewManager(deps Deps) *Manager {
	m := &Manager{
		hoistedNoteID: types.RootNoteID,
		tree:          deps.Tree,
		session:       deps.Session,
		address:       deps.Address,
		publisher:     deps.Publisher,
		mobile:        deps.Mobile,
		newTabID:      deps.NewTabID,
		logger:        logging.OrNop(deps.Logger),
		metrics:       deps.Metrics,
	}
	if m.newTabID == nil {
		m.newTabID = func() string { return id.NewTabID().String() }
	}

	opts := debounce.Options{
		Interval: deps.SaveInterval,
		Clock:    deps.Clock,
		Logger:   m.logger,
	}
	if deps.Metrics != nil {
		opts.OnWrite = deps.Metrics.ObserveWrite
	}
	m.saver = debounce.New(m.saveTabs, opts)

	return m
}

// OnBeforeTabRemove registers a hook awaited before every removal.
func (m *Manager) OnBeforeTabRemove(hook BeforeRemoveHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// TabContexts returns the tabs in order.
func (m *Manager) TabContexts() []*Tab {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.tabs)
}

// TabContextByID finds a tab.
func (m *Manager) TabContextByID(tabID string) (*Tab, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := m.tabByID(tabID)
	return t, t != nil
}

// ActiveTabContext returns the active tab, if any.
func (m *Manager) ActiveTabContext() (*Tab, bool) {
	return m.TabContextByID(m.ActiveTabID())
}

// ActiveTabID returns the active tab id.
func (m *Manager) ActiveTabID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeTabID
}

// ActiveTabNotePath returns the active tab's note path.
func (m *Manager) ActiveTabNotePath() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := m.tabByID(m.activeTabID)
	if t == nil {
		return "", false
	}
	return t.notePath, true
}

// ActiveTabNote returns the active tab's resolved note.
func (m *Manager) ActiveTabNote() (*types.Note, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t := m.tabByID(m.activeTabID)
	if t == nil || t.note == nil {
		return nil, false
	}
	n := *t.note
	return &n, true
}

// ActiveTabNoteID returns the id of the active tab's resolved note.
func (m *Manager) ActiveTabNoteID() (string, bool) {
	note, ok := m.ActiveTabNote()
	if !ok {
		return "", false
	}
	return note.NoteID, true
}

// ActiveTabNoteType returns the type of the active tab's resolved note.
func (m *Manager) ActiveTabNoteType() (string, bool) {
	note, ok := m.ActiveTabNote()
	if !ok {
		return "", false
	}
	return note.Type, true
}

// TabStates returns the records that would be persisted now.
func (m *Manager) TabStates() []types.TabState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tabStates()
}

// Views returns read models of all tabs in order.
func (m *Manager) Views() []types.TabView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	views := make([]types.TabView, 0, len(m.tabs))
	for _, t := range m.tabs {
		views = append(views, t.view())
	}
	return views
}

// HoistedNoteID returns the current hoisting root.
func (m *Manager) HoistedNoteID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hoistedNoteID
}

// Stats returns manager statistics
func (m *Manager) Stats() types.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.Stats{
		TotalTabs:     len(m.tabs),
		ActiveTabID:   m.activeTabID,
		HoistedNoteID: m.hoistedNoteID,
		Loaded:        m.loaded,
	}
	for _, t := range m.tabs {
		if t.notePath == "" {
			stats.EmptyTabs++
		}
	}
	return stats
}

// SavePending reports whether a session write is waiting.
func (m *Manager) SavePending() bool {
	return m.saver.Pending()
}

// BeforeUnloadEvent writes any pending session state immediately.
func (m *Manager) BeforeUnloadEvent(ctx context.Context) error {
	if err := m.saver.FlushNow(ctx); err != nil {
		return fmt.Errorf("failed to flush open tabs: %w", err)
	}
	return nil
}

// Close flushes pending state and stops scheduling writes.
func (m *Manager) Close(ctx context.Context) error {
	m.saver.Stop()
	return m.BeforeUnloadEvent(ctx)
}

// saveTabs is the debounced write. It takes the read lock itself.
func (m *Manager) saveTabs(ctx context.Context) error {
	m.mu.RLock()
	states := m.tabStates()
	m.mu.RUnlock()

	return m.session.Save(ctx, states)
}

func (m *Manager) tabStates() []types.TabState {
	states := make([]types.TabState, 0, len(m.tabs))
	for _, t := range m.tabs {
		if state, ok := t.tabState(); ok {
			states = append(states, state)
		}
	}
	return states
}

func (m *Manager) tabByID(tabID string) *Tab {
	for _, t := range m.tabs {
		if t.id == tabID {
			return t
		}
	}
	return nil
}

func (m *Manager) indexOf(tabID string) int {
	return slices.IndexFunc(m.tabs, func(t *Tab) bool { return t.id == tabID })
}

func (m *Manager) owns(t *Tab) bool {
	return slices.Contains(m.tabs, t)
}

func (m *Manager) publish(n Notification) {
	if m.metrics != nil {
		m.metrics.RecordNotification(string(n.Type))
	}
	if m.publisher != nil {
		m.publisher.Publish(n)
	}
}

func (m *Manager) record(op string) {
	if m.metrics == nil {
		return
	}
	m.metrics.RecordTabOperation(op)
	m.metrics.SetTabsOpen(len(m.tabs))
}

func (m *Manager) syncAddress() {
	if m.address == nil {
		return
	}
	t := m.tabByID(m.activeTabID)
	if t == nil {
		return
	}

	target := address.Target{TabID: t.id, NotePath: t.notePath}
	if t.note != nil {
		target.NoteTitle = t.note.Title
		target.Resolved = true
	}
	m.address.Sync(target)
}
