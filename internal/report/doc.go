// Package report renders day summaries and multi-day history for the CLI,
// and filters task lists by tag or category glob patterns.
package report
