package notetree

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/qisqifen/trilium/internal/shared/types"
)

// Seed is the on-disk shape of a note tree seed file.
//
//	notes:
//	  - noteId: abc123
//	    title: Journal
//	    type: text
//	    children:
//	      - noteId: def456
//	        title: Monday
type Seed struct {
	Notes []SeedNote `yaml:"notes"`
}

// SeedNote is one note plus its children.
type SeedNote struct {
	types.Note `yaml:",inline"`
	Children   []SeedNote `yaml:"children,omitempty"`
}

// Cache is an in-memory note lookup. The root note always exists.
type Cache struct {
	mu    sync.RWMutex
	notes map[string]types.Note
}

// New creates a cache holding only the root note plus notes.
func New(notes ...types.Note) *Cache {
	c := &Cache{notes: make(map[string]types.Note)}
	c.notes[types.RootNoteID] = types.Note{NoteID: types.RootNoteID, Title: "root", Type: "text"}
	for _, n := range notes {
		c.notes[n.NoteID] = n
	}
	return c
}

// LoadFile builds a cache from a YAML seed file. An empty path yields a
// cache with only the root note.
func LoadFile(path string) (*Cache, error) {
	c := New()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read note tree seed: %w", err)
	}
	if err := c.LoadYAML(data); err != nil {
		return nil, fmt.Errorf("failed to parse note tree seed %s: %w", path, err)
	}
	return c, nil
}

// LoadYAML adds every note in the seed document.
func (c *Cache) LoadYAML(data []byte) error {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var walk func(nodes []SeedNote) error
	walk = func(nodes []SeedNote) error {
		for _, n := range nodes {
			if n.NoteID == "" {
				return fmt.Errorf("note %q has no noteId", n.Title)
			}
			if n.Type == "" {
				n.Type = "text"
			}
			c.notes[n.NoteID] = n.Note
			if err := walk(n.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(seed.Notes)
}

// NoteExists reports whether noteID is known.
func (c *Cache) NoteExists(ctx context.Context, noteID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.notes[noteID]
	return ok, nil
}

// GetNote returns the note with noteID, or nil when it is unknown.
func (c *Cache) GetNote(ctx context.Context, noteID string) (*types.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.notes[noteID]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// Put adds or replaces a note.
func (c *Cache) Put(note types.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes[note.NoteID] = note
}

// Delete forgets a note. The root note cannot be deleted.
func (c *Cache) Delete(noteID string) {
	if noteID == types.RootNoteID {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.notes, noteID)
}

// Len returns the number of known notes, root included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.notes)
}
