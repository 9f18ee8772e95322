package address

import (
	"sync"
	"time"
)

// Entry is one pushed history state.
type Entry struct {
	Fragment string    `json:"fragment"`
	Title    string    `json:"title"`
	At       time.Time `json:"at"`
}

// Snapshot is a point-in-time view of a History.
type Snapshot struct {
	Hash    string  `json:"hash"`
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

// History is an in-process Location that remembers the most recent pushes.
type History struct {
	mu      sync.RWMutex
	hash    string
	title   string
	entries []Entry
	limit   int
}

// NewHistory creates a History starting at initialHash, keeping at most
// limit entries (100 when limit <= 0).
func NewHistory(initialHash string, limit int) *History {
	if limit <= 0 {
		limit = 100
	}
	return &History{hash: initialHash, limit: limit}
}

func (h *History) Hash() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.hash
}

func (h *History) PushState(fragment string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.hash = fragment
	h.entries = append(h.entries, Entry{Fragment: fragment, Title: h.title, At: time.Now()})
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]Entry(nil), h.entries[over:]...)
	}
}

// SetTitle sets the title and stamps it on the latest entry.
func (h *History) SetTitle(title string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.title = title
	if n := len(h.entries); n > 0 {
		h.entries[n-1].Title = title
	}
}

// Title returns the current document title.
func (h *History) Title() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.title
}

// Snapshot copies the current state.
func (h *History) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Snapshot{
		Hash:    h.hash,
		Title:   h.title,
		Entries: append([]Entry(nil), h.entries...),
	}
}
