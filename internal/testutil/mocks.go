// Package testutil provides testify mocks for the collaborators of the tab
// session.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/qisqifen/trilium/internal/shared/types"
)

// MockSettingsStore is a mock key-value settings store.
type MockSettingsStore struct {
	mock.Mock
}

// Get mocks the Get method.
func (m *MockSettingsStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// Put mocks the Put method.
func (m *MockSettingsStore) Put(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// Close mocks the Close method.
func (m *MockSettingsStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockNoteTree is a mock note existence/lookup cache.
type MockNoteTree struct {
	mock.Mock
}

// NoteExists mocks the NoteExists method. The first return value may be a
// func(context.Context, string) bool.
func (m *MockNoteTree) NoteExists(ctx context.Context, noteID string) (bool, error) {
	args := m.Called(ctx, noteID)
	if fn, ok := args.Get(0).(func(context.Context, string) bool); ok {
		return fn(ctx, noteID), args.Error(1)
	}
	return args.Bool(0), args.Error(1)
}

// GetNote mocks the GetNote method. The first return value may be a
// func(context.Context, string) *types.Note.
func (m *MockNoteTree) GetNote(ctx context.Context, noteID string) (*types.Note, error) {
	args := m.Called(ctx, noteID)
	if fn, ok := args.Get(0).(func(context.Context, string) *types.Note); ok {
		return fn(ctx, noteID), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Note), args.Error(1)
}

// NewMockNoteTree creates a mock tree where exactly the given note ids (and
// root) exist.
func NewMockNoteTree(t *testing.T, noteIDs ...string) *MockNoteTree {
	t.Helper()
	m := new(MockNoteTree)

	known := map[string]bool{types.RootNoteID: true}
	for _, id := range noteIDs {
		known[id] = true
	}

	m.On("NoteExists", mock.Anything, mock.Anything).
		Return(func(_ context.Context, noteID string) bool { return known[noteID] }, nil).
		Maybe()
	m.On("GetNote", mock.Anything, mock.Anything).
		Return(func(_ context.Context, noteID string) *types.Note {
			if !known[noteID] {
				return nil
			}
			return &types.Note{NoteID: noteID, Title: "Note " + noteID, Type: "text"}
		}, nil).
		Maybe()

	return m
}
