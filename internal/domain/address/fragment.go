package address

import "strings"

// EncodeFragment builds the "#<notePath>-<tabId>" fragment.
func EncodeFragment(notePath, tabID string) string {
	return "#" + notePath + "-" + tabID
}

// ParseFragment splits a fragment (with or without the leading '#') into
// note path and tab id. A fragment without a tab suffix yields an empty id.
func ParseFragment(hash string) (notePath, tabID string) {
	hash = strings.TrimPrefix(hash, "#")
	notePath, tabID, _ = strings.Cut(hash, "-")
	return notePath, tabID
}
