/*
Package session persists the open tab list and the hoisted note in the
settings store.

The tab list is stored as a JSON array of {notePath, active, tabId} records
under a single key ("openTabs" by default), and the hoisted note id under a
second key. A missing or unreadable tab list restores as an empty session.
*/
package session
