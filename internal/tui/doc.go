// Package tui renders the live day board: one column per time block, fed
// by the session's effective view and refreshed on every realtime
// snapshot or tracker change. The board is a consumer of the engine; all
// mutation semantics live in the session and tracker.
package tui
