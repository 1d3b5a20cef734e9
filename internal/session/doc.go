// Package session wires the engine together for one date in view: the
// confirmed task collection fetched from the store, the optimistic
// mutation tracker layered on top, and the realtime subscription that
// replaces the confirmed base whenever any writer commits.
//
// The session is the mutation API the UI layer consumes. Validation
// failures and unknown task IDs are returned synchronously and never
// enter the tracker; transport failures on updates are absorbed into the
// tracker's retry loop and surface only through HasFailed.
package session
