// Package tracker implements the optimistic mutation tracker: it holds
// pending and failed partial updates keyed by task, overlays them on the
// confirmed task collection to produce the effective view, and drives the
// retry scheduler for failed store writes.
//
// Failures never roll back the optimistic value. The overlay a mutation
// contributes stays visible until a confirmed write for its task lands,
// even after retries are exhausted or the failure is dismissed; only a
// later snapshot-confirmed success replaces it. This trades strict
// correctness for responsiveness.
package tracker
