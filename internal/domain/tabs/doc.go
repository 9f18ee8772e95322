/*
Package tabs implements the tab session of the note application: an ordered
set of tabs, each bound to a note path, with exactly one active tab.

# Lifecycle

A Manager starts empty. LoadTabs restores the persisted session, reconciles
it with a note path from the address fragment, drops tabs whose notes no
longer exist, and guarantees at least one tab with exactly one active. From
then on every operation preserves that invariant; removing the last tab
replaces it with a new empty one.

# Persistence

State changes schedule a debounced write of the tab list. Restoring runs with
scheduling suppressed so a fresh load is not written straight back.
BeforeUnloadEvent and Close flush a pending write immediately and return
its error.

# Notifications

Notifications go to a Publisher and are fire-and-forget. The one exception is
beforeTabRemove, which is additionally delivered to hooks registered with
OnBeforeTabRemove; those are awaited, in order, before the removal
continues. Hooks must not call the Manager.
*/
package tabs
