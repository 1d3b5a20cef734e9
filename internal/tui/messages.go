package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ViewRefreshMsg signals that the session's effective view changed: a
// realtime snapshot arrived, a mutation was submitted or confirmed, or
// the failed set changed. The board re-reads the session on receipt.
type ViewRefreshMsg struct{}

// RefreshBridge coalesces session change callbacks into ViewRefreshMsg
// deliveries. The session's onChange callback fires on arbitrary
// goroutines; the bridge's buffered channel hands the signal to the
// Bubble Tea event loop without blocking either side.
type RefreshBridge struct {
	ch chan struct{}
}

// NewRefreshBridge creates a bridge. Wire its Notify method into
// session.SetOnChange.
func NewRefreshBridge() *RefreshBridge {
	return &RefreshBridge{ch: make(chan struct{}, 1)}
}

// Notify records that the view changed. Non-blocking; consecutive
// notifications before the next read coalesce into one refresh.
func (b *RefreshBridge) Notify() {
	select {
	case b.ch <- struct{}{}:
	default:
	}
}

// WaitCmd returns a tea.Cmd that delivers the next ViewRefreshMsg. Re-arm
// it in Update after each receipt:
//
//	case ViewRefreshMsg:
//	    // re-read the session...
//	    return m, m.bridge.WaitCmd(ctx)
func (b *RefreshBridge) WaitCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-b.ch:
			return ViewRefreshMsg{}
		}
	}
}
