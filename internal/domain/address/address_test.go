package address

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFragment(t *testing.T) {
	tests := []struct {
		hash     string
		notePath string
		tabID    string
	}{
		{"#root/journal-tab_01", "root/journal", "tab_01"},
		{"root/journal-tab_01", "root/journal", "tab_01"},
		{"#root/journal", "root/journal", ""},
		{"#-tab_01", "", "tab_01"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.hash, func(t *testing.T) {
			notePath, tabID := ParseFragment(tt.hash)
			assert.Equal(t, tt.notePath, notePath)
			assert.Equal(t, tt.tabID, tabID)
		})
	}

	notePath, tabID := ParseFragment(EncodeFragment("root/a/b", "tab_x"))
	assert.Equal(t, "root/a/b", notePath)
	assert.Equal(t, "tab_x", tabID)
}

func TestSyncPushesOnChange(t *testing.T) {
	history := NewHistory("", 10)
	s := NewSynchronizer(history, "", nil)

	pushed := s.Sync(Target{TabID: "tab_1", NotePath: "root/journal", NoteTitle: "Journal", Resolved: true})
	require.True(t, pushed)
	assert.Equal(t, "#root/journal-tab_1", history.Hash())
	assert.Equal(t, "Trilium Notes - Journal", history.Title())

	pushed = s.Sync(Target{TabID: "tab_2", NotePath: "root/journal", NoteTitle: "Journal (renamed)", Resolved: true})
	assert.False(t, pushed, "same note path is not pushed again")
	assert.Len(t, history.Snapshot().Entries, 1)
	assert.Equal(t, "Trilium Notes - Journal (renamed)", history.Title(), "title still refreshed")

	pushed = s.Sync(Target{TabID: "tab_2", NotePath: "root/inbox"})
	require.True(t, pushed)
	assert.Equal(t, "#root/inbox-tab_2", history.Hash())
	assert.Equal(t, "Trilium Notes", history.Title(), "unresolved note keeps the base title")
}

func TestSyncEmptyTab(t *testing.T) {
	history := NewHistory("", 10)
	s := NewSynchronizer(history, "Notes", nil)

	require.True(t, s.Sync(Target{TabID: "tab_1"}))
	assert.Equal(t, "#-tab_1", history.Hash())
	assert.Equal(t, "Notes", history.Title())
}

func TestTitleSanitized(t *testing.T) {
	s := NewSynchronizer(NewHistory("", 1), "Trilium Notes", nil)

	tests := []struct {
		in   string
		want string
	}{
		{"<b>Inbox</b>", "Trilium Notes - Inbox"},
		{"Tom & Jerry", "Trilium Notes - Tom & Jerry"},
		{`<img src=x onerror="alert(1)">Photos`, "Trilium Notes - Photos"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Title(Target{NoteTitle: tt.in, Resolved: true}))
	}
}

func TestHistoryBounded(t *testing.T) {
	history := NewHistory("#root-tab_0", 3)
	assert.Equal(t, "#root-tab_0", history.Hash())

	for i := 1; i <= 5; i++ {
		history.PushState(fmt.Sprintf("#n%d-tab_%d", i, i))
		history.SetTitle(fmt.Sprintf("title %d", i))
	}

	snap := history.Snapshot()
	require.Len(t, snap.Entries, 3)
	assert.Equal(t, "#n3-tab_3", snap.Entries[0].Fragment)
	assert.Equal(t, "title 3", snap.Entries[0].Title)
	assert.Equal(t, "#n5-tab_5", snap.Hash)
	assert.Equal(t, "title 5", snap.Title)
}
