// Package cli defines the daydeck command tree: one-shot verbs for
// reading and mutating the day document, the interactive board, and the
// shared wiring that assembles config, store, realtime channel, and
// session for each command.
package cli
