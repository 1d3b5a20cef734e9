// Package realtime delivers live day-document snapshots pushed by the
// remote store. A delivery completely replaces the confirmed base the
// tracker overlays; it is never merged field-by-field. A push that
// predates a pending write's confirmation can therefore reintroduce stale
// data for fields the pending mutation does not touch. That race is
// accepted, not patched.
package realtime
