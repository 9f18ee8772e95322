// Package events provides a small typed publish/subscribe bus for
// fire-and-forget notifications.
package events
