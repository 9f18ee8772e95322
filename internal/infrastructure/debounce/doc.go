// Package debounce coalesces bursts of state changes into spaced writes.
//
// A Scheduler wraps one UpdateFunc. Schedule marks a write pending and arms a
// single timer; every call made before the timer fires is folded into the
// same write. FlushNow runs a pending write synchronously (used on shutdown),
// and RunSilently executes a block during which Schedule calls are ignored,
// so restoring persisted state does not immediately write it back.
//
// Time is injected through Clock. ManualClock lets tests step time by hand.
package debounce
