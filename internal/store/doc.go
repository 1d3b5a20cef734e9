// Package store implements the document store client: read-modify-write
// CRUD against a remote table where each day's tasks live in a single
// ordered day document.
//
// There is no per-task concurrency token. Every write replaces the whole
// task array, so two clients updating different tasks concurrently can
// still race: whichever write lands last overwrites the other's array.
// This legacy behavior is kept on purpose; see Options.ConflictChecks for
// the opt-in precondition mode.
package store
