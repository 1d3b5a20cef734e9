package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mvreilly/daydeck/internal/drag"
	"github.com/mvreilly/daydeck/internal/session"
	"github.com/mvreilly/daydeck/internal/task"
)

// column is one rendered bucket: its time block and the tasks currently
// in it. The fourth column holds unscheduled tasks.
type column struct {
	block task.TimeBlock
	title string
	tasks []task.Task
}

// Board is the top-level Bubble Tea model for `daydeck watch`.
type Board struct {
	ctx      context.Context
	sess     *session.Session
	resolver *drag.Resolver
	bridge   *RefreshBridge

	columns []column
	col     int // cursor column
	row     int // cursor row within column

	keys     keyMap
	help     help.Model
	spin     spinner.Model
	width    int
	height   int
	ready    bool
	quitting bool
	showHelp bool
}

// NewBoard constructs the board for a session. The bridge must already be
// wired into the session's change callback.
func NewBoard(ctx context.Context, sess *session.Session, bridge *RefreshBridge) Board {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	b := Board{
		ctx:    ctx,
		sess:   sess,
		bridge: bridge,
		keys:   defaultKeyMap(),
		help:   help.New(),
		spin:   sp,
	}
	b.resolver = drag.NewResolver(sess.BucketOf, sess.Tracker())
	b.reload()
	return b
}

// reload re-reads the effective view and rebuilds the columns, clamping
// the cursor to the new layout.
func (b *Board) reload() {
	tasks := b.sess.EffectiveView()

	cols := make([]column, 0, 4)
	for _, block := range task.TimeBlocks() {
		col := column{block: block, title: string(block)}
		for _, t := range tasks {
			if t.TimeBlock == block {
				col.tasks = append(col.tasks, t)
			}
		}
		cols = append(cols, col)
	}
	unscheduled := column{title: "unscheduled"}
	for _, t := range tasks {
		if t.TimeBlock == "" {
			unscheduled.tasks = append(unscheduled.tasks, t)
		}
	}
	cols = append(cols, unscheduled)
	b.columns = cols

	if b.col >= len(b.columns) {
		b.col = len(b.columns) - 1
	}
	if n := len(b.columns[b.col].tasks); b.row >= n {
		b.row = n - 1
	}
	if b.row < 0 {
		b.row = 0
	}
}

// cursorTask returns the task under the cursor, if any.
func (b *Board) cursorTask() (task.Task, bool) {
	col := b.columns[b.col]
	if b.row >= len(col.tasks) {
		return task.Task{}, false
	}
	return col.tasks[b.row], true
}

// Init starts the spinner and arms the refresh listener.
func (b Board) Init() tea.Cmd {
	return tea.Batch(b.spin.Tick, b.bridge.WaitCmd(b.ctx))
}

// Update dispatches incoming messages.
func (b Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = m.Width
		b.height = m.Height
		b.help.Width = m.Width
		b.ready = true
		return b, nil

	case ViewRefreshMsg:
		b.reload()
		return b, b.bridge.WaitCmd(b.ctx)

	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spin, cmd = b.spin.Update(m)
		return b, cmd

	case tea.KeyMsg:
		return b.handleKey(m)
	}

	return b, nil
}

// handleKey processes one key press against the gesture state machine and
// cursor movement.
func (b Board) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(m, b.keys.Quit):
		b.resolver.Cancel()
		b.quitting = true
		return b, tea.Quit

	case key.Matches(m, b.keys.Help):
		b.showHelp = !b.showHelp
		return b, nil

	case key.Matches(m, b.keys.Up):
		if b.row > 0 {
			b.row--
		}
		return b, nil

	case key.Matches(m, b.keys.Down):
		if b.row < len(b.columns[b.col].tasks)-1 {
			b.row++
		}
		return b, nil

	case key.Matches(m, b.keys.Left):
		if b.col > 0 {
			b.col--
			b.clampRow()
		}
		return b, nil

	case key.Matches(m, b.keys.Right):
		if b.col < len(b.columns)-1 {
			b.col++
			b.clampRow()
		}
		return b, nil

	case key.Matches(m, b.keys.Grab):
		if b.resolver.State() == drag.Dragging {
			// Grab while dragging drops onto the task under the cursor:
			// a reorder, which persists nothing.
			if t, ok := b.cursorTask(); ok {
				b.resolver.DropOnTask(t.ID)
			} else {
				b.resolver.Cancel()
			}
			return b, nil
		}
		if t, ok := b.cursorTask(); ok {
			b.resolver.Start(t.ID)
		}
		return b, nil

	case key.Matches(m, b.keys.Drop):
		if b.resolver.State() != drag.Dragging {
			return b, nil
		}
		// Dropping on the unscheduled column is not a bucket target.
		if b.columns[b.col].block == "" {
			b.resolver.Cancel()
			return b, nil
		}
		b.resolver.DropOnBucket(b.columns[b.col].block)
		b.reload()
		return b, nil

	case key.Matches(m, b.keys.Cancel):
		b.resolver.Cancel()
		return b, nil

	case key.Matches(m, b.keys.Done):
		if t, ok := b.cursorTask(); ok {
			status := task.StatusCompleted
			_, _ = b.sess.UpdateTask(t.ID, task.PartialUpdate{Status: &status})
			b.reload()
		}
		return b, nil

	case key.Matches(m, b.keys.Retry):
		b.sess.RetryFailedUpdates()
		return b, nil

	case key.Matches(m, b.keys.Dismiss):
		b.sess.ClearFailedUpdates()
		return b, nil
	}

	return b, nil
}

func (b *Board) clampRow() {
	if n := len(b.columns[b.col].tasks); b.row >= n {
		b.row = n - 1
	}
	if b.row < 0 {
		b.row = 0
	}
}

// View renders the board.
func (b Board) View() string {
	if b.quitting {
		return ""
	}
	if !b.ready {
		return "Loading " + b.sess.Date() + "..."
	}

	colWidth := b.width/len(b.columns) - 2
	if colWidth < 16 {
		colWidth = 16
	}

	rendered := make([]string, 0, len(b.columns))
	for ci, col := range b.columns {
		rendered = append(rendered, b.renderColumn(ci, col, colWidth))
	}
	board := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)

	parts := []string{b.renderHeader(), board, b.renderStatusBar()}
	if b.showHelp {
		parts = append(parts, b.help.View(b.keys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b Board) renderHeader() string {
	summary := b.sess.Summary()
	header := columnTitleStyle.Render(b.sess.Date()) + "  " + statusBarStyle.Render(summary.String())
	if b.sess.HasFailedUpdates() {
		header += "  " + failedBannerStyle.Render("update failed: r retry, x dismiss")
	}
	return header
}

func (b Board) renderColumn(ci int, col column, width int) string {
	title := columnTitleStyle.Render(col.title)

	lines := []string{title}
	for ri, t := range col.tasks {
		lines = append(lines, b.renderCard(t, ci == b.col && ri == b.row))
	}
	if len(col.tasks) == 0 {
		lines = append(lines, statusBarStyle.Render("—"))
	}

	return columnStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (b Board) renderCard(t task.Task, selected bool) string {
	label := fmt.Sprintf("%s %s", t.Priority, t.Title)
	if t.Progress > 0 && t.Status != task.StatusCompleted {
		label += fmt.Sprintf(" %d%%", t.Progress)
	}

	style := cardStyle
	switch {
	case b.resolver.DraggingTask() == t.ID:
		style = draggingCardStyle
	case selected:
		style = selectedCardStyle
	case t.Status == task.StatusCompleted:
		style = doneCardStyle
	}
	line := style.Render(label)

	if b.sess.IsPending(t.ID) {
		line += " " + pendingMarkStyle.Render(b.spin.View())
	}
	return line
}

func (b Board) renderStatusBar() string {
	if b.resolver.State() == drag.Dragging {
		return statusBarStyle.Render("dragging: enter drops into the highlighted bucket, esc cancels")
	}
	return statusBarStyle.Render("space grab · c complete · ? help · q quit")
}
