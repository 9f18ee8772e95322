package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/qisqifen/trilium/internal/shared/notepath"
)

// String length limits
const (
	MaxIDLength       = 128
	MaxNotePathLength = 4096
	MaxPathDepth      = 256
	MaxReorderCount   = 1024
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// NoteIDPattern allows alphanumeric and underscores; hyphens separate the tab suffix in fragments
	NoteIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateNoteID validates a single note id
func ValidateNoteID(noteID, fieldName string, required bool) error {
	if err := ValidateString(noteID, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if noteID != "" && !NoteIDPattern.MatchString(noteID) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateNotePath validates a slash-delimited note path; every segment must be a note id
func ValidateNotePath(path string, required bool) error {
	if err := ValidateString(path, "note_path", 1, MaxNotePathLength, required); err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	segments := notepath.Segments(path)
	if len(segments) > MaxPathDepth {
		return fmt.Errorf("note_path exceeds maximum depth %d", MaxPathDepth)
	}
	for i, segment := range segments {
		if err := ValidateNoteID(segment, fmt.Sprintf("note_path[%d]", i), true); err != nil {
			return err
		}
	}

	return nil
}

// ValidateTabOrder validates a reorder request
func ValidateTabOrder(tabIDs []string) error {
	if len(tabIDs) > MaxReorderCount {
		return fmt.Errorf("too many tab ids (maximum %d)", MaxReorderCount)
	}

	for i, tabID := range tabIDs {
		if err := ValidateID(tabID, fmt.Sprintf("tabIdsInOrder[%d]", i), true); err != nil {
			return err
		}
	}

	return nil
}
