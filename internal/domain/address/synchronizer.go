package address

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// DefaultBaseTitle is the document title with no note resolved.
const DefaultBaseTitle = "Trilium Notes"

// Location is the addressable surface being kept in sync: a URL fragment
// that can be replaced without navigating, plus a document title.
type Location interface {
	Hash() string
	PushState(fragment string)
	SetTitle(title string)
}

// Target is what the synchronizer needs to know about the active tab.
type Target struct {
	TabID     string
	NotePath  string
	NoteTitle string
	Resolved  bool
}

// Synchronizer mirrors the active tab into a Location.
type Synchronizer struct {
	location  Location
	baseTitle string
	policy    *bluemonday.Policy
	logger    *zap.Logger
}

// NewSynchronizer creates a synchronizer writing to location.
func NewSynchronizer(location Location, baseTitle string, logger *zap.Logger) *Synchronizer {
	if baseTitle == "" {
		baseTitle = DefaultBaseTitle
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{
		location:  location,
		baseTitle: baseTitle,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

// Sync pushes a new fragment when the target's note path differs from the
// one currently in the location, and always refreshes the title. It reports
// whether it pushed.
func (s *Synchronizer) Sync(target Target) bool {
	hash := s.location.Hash()
	current, _ := ParseFragment(hash)
	if current == target.NotePath && hash != "" {
		s.location.SetTitle(s.Title(target))
		return false
	}

	s.location.PushState(EncodeFragment(target.NotePath, target.TabID))
	s.location.SetTitle(s.Title(target))

	s.logger.Debug("Address synchronized",
		zap.String("tab_id", target.TabID),
		zap.String("note_path", target.NotePath))
	return true
}

// Title returns the document title for target.
func (s *Synchronizer) Title(target Target) string {
	if !target.Resolved {
		return s.baseTitle
	}
	return s.baseTitle + " - " + s.plain(target.NoteTitle)
}

// plain strips markup from a note title.
func (s *Synchronizer) plain(title string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(title)))
}
