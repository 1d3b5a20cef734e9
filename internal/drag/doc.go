// Package drag implements the relocation resolver: a small state machine
// that turns a drag gesture into at most one bucket-change mutation.
//
// Dropping a task onto a bucket container with a different time block
// submits {time_block: target}. Dropping onto another task is a
// presentation-level reorder and persists nothing. A cancelled drag emits
// nothing and leaves no stray pending mutation.
package drag
