// Package notepath parses slash-delimited note ancestry chains such as
// "root/a1b2c3/d4e5f6". The last segment is the note itself; it may carry a
// "-<tabId>" suffix when the path came from the URL fragment.
package notepath

import (
	"slices"
	"strings"
)

const separator = "/"

// NoteID returns the id of the note a path points at, or "" for an empty path.
func NoteID(notePath string) string {
	if notePath == "" {
		return ""
	}

	segments := strings.Split(notePath, separator)
	last := segments[len(segments)-1]

	noteID, _, _ := strings.Cut(last, "-")
	return noteID
}

// Segments returns the note ids along the path, tab suffix stripped.
func Segments(notePath string) []string {
	if notePath == "" {
		return nil
	}

	segments := strings.Split(notePath, separator)
	segments[len(segments)-1] = NoteID(notePath)
	return segments
}

// Contains reports whether noteID appears anywhere in the ancestry chain.
func Contains(notePath, noteID string) bool {
	return slices.Contains(Segments(notePath), noteID)
}

// Join builds a path from note ids.
func Join(noteIDs ...string) string {
	return strings.Join(noteIDs, separator)
}
