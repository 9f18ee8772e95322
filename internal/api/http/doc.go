// Package http exposes the tab session over REST.
//
// Commands map one-to-one onto tabs.Manager operations and answer with the
// resulting tab list, so a client never needs a second round trip to learn
// which tab became active. Request bodies and path params are validated
// with shared/utils before they reach the manager.
package http
