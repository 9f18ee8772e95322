package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/qisqifen/trilium/internal/providers/settings"
	"github.com/qisqifen/trilium/internal/shared/types"
)

// Store is the part of the settings store the session needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// Options names the settings keys the session lives under.
type Options struct {
	OpenTabsKey string
	HoistedKey  string
	Logger      *zap.Logger
}

// Manager reads and writes the persisted tab session.
type Manager struct {
	store       Store
	openTabsKey string
	hoistedKey  string
	logger      *zap.Logger

	mu           sync.RWMutex
	lastSaved    *time.Time
	lastRestored *time.Time
}

// Info reports when the session was last written and read.
type Info struct {
	LastSaved    *time.Time `json:"last_saved,omitempty"`
	LastRestored *time.Time `json:"last_restored,omitempty"`
}

// NewManager creates a new session manager
func NewManager(store Store, opts Options) *Manager {
	if opts.OpenTabsKey == "" {
		opts.OpenTabsKey = "openTabs"
	}
	if opts.HoistedKey == "" {
		opts.HoistedKey = "hoistedNoteId"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Manager{
		store:       store,
		openTabsKey: opts.OpenTabsKey,
		hoistedKey:  opts.HoistedKey,
		logger:      opts.Logger,
	}
}

// Load returns the persisted tab list. A missing key or a value that does
// not parse yields an empty list; only store failures are returned.
func (m *Manager) Load(ctx context.Context) ([]types.TabState, error) {
	raw, err := m.store.Get(ctx, m.openTabsKey)
	if errors.Is(err, settings.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read open tabs: %w", err)
	}

	states, err := Decode(raw)
	if err != nil {
		m.logger.Warn("Discarding unreadable open tabs", zap.String("key", m.openTabsKey), zap.Error(err))
		return nil, nil
	}

	now := time.Now()
	m.mu.Lock()
	m.lastRestored = &now
	m.mu.Unlock()

	return states, nil
}

// Save replaces the persisted tab list.
func (m *Manager) Save(ctx context.Context, states []types.TabState) error {
	raw, err := Encode(states)
	if err != nil {
		return err
	}

	if err := m.store.Put(ctx, m.openTabsKey, raw); err != nil {
		return fmt.Errorf("failed to write open tabs: %w", err)
	}

	now := time.Now()
	m.mu.Lock()
	m.lastSaved = &now
	m.mu.Unlock()

	m.logger.Debug("Open tabs saved", zap.Int("count", len(states)))
	return nil
}

// LoadHoisted returns the persisted hoisted note id, or the root note.
func (m *Manager) LoadHoisted(ctx context.Context) (string, error) {
	value, err := m.store.Get(ctx, m.hoistedKey)
	if errors.Is(err, settings.ErrNotFound) || (err == nil && value == "") {
		return types.RootNoteID, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read hoisted note: %w", err)
	}
	return value, nil
}

// SaveHoisted stores the hoisted note id.
func (m *Manager) SaveHoisted(ctx context.Context, noteID string) error {
	if err := m.store.Put(ctx, m.hoistedKey, noteID); err != nil {
		return fmt.Errorf("failed to write hoisted note: %w", err)
	}
	return nil
}

// Info returns save/restore timestamps.
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Info{LastSaved: m.lastSaved, LastRestored: m.lastRestored}
}

// Encode serializes tab states as a JSON array; nil encodes as [].
func Encode(states []types.TabState) (string, error) {
	if states == nil {
		states = []types.TabState{}
	}
	data, err := sonic.Marshal(states)
	if err != nil {
		return "", fmt.Errorf("failed to marshal open tabs: %w", err)
	}
	return string(data), nil
}

// Decode parses a JSON array of tab states. Blank input and null decode to
// an empty list.
func Decode(raw string) ([]types.TabState, error) {
	if raw == "" {
		return nil, nil
	}

	var states []types.TabState
	if err := sonic.UnmarshalString(raw, &states); err != nil {
		return nil, fmt.Errorf("failed to unmarshal open tabs: %w", err)
	}
	return states, nil
}
