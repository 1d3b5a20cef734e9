package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mvreilly/daydeck/internal/logging"
	"github.com/mvreilly/daydeck/internal/task"
)

var logger = logging.New("realtime")

const (
	// heartbeatInterval keeps the Phoenix socket alive. The server closes
	// connections that miss two consecutive heartbeats.
	heartbeatInterval = 30 * time.Second

	// writeTimeout bounds every socket write.
	writeTimeout = 10 * time.Second
)

// WebsocketOptions configures the websocket channel.
type WebsocketOptions struct {
	// URL is the realtime endpoint, e.g.
	// wss://xyzcompany.supabase.co/realtime/v1/websocket.
	URL string

	// APIKey authenticates the socket.
	APIKey string

	// Table is the watched table name (default "daily_tasks").
	Table string
}

// Websocket subscribes to row changes over the store's Phoenix-protocol
// realtime socket. Each Subscribe call dials its own connection; the
// payload of every change event carries the full updated row, which is
// delivered as a whole-document snapshot.
type Websocket struct {
	opts WebsocketOptions
}

// NewWebsocket creates a websocket-backed channel.
func NewWebsocket(opts WebsocketOptions) (*Websocket, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("realtime: URL is required")
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("realtime: API key is required")
	}
	if opts.Table == "" {
		opts.Table = "daily_tasks"
	}
	return &Websocket{opts: opts}, nil
}

// phoenixMessage is the Phoenix channel wire envelope.
type phoenixMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

// changePayload is the postgres_changes event payload. Record is the full
// row after the change.
type changePayload struct {
	Record struct {
		Date  string      `json:"date"`
		Tasks []task.Task `json:"tasks"`
	} `json:"record"`
	Type string `json:"type"`
}

// Subscribe implements Channel.
func (w *Websocket) Subscribe(ctx context.Context, date string, h Handler) (Unsubscribe, error) {
	u, err := url.Parse(w.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("realtime: parsing URL: %w", err)
	}
	q := u.Query()
	q.Set("apikey", w.opts.APIKey)
	q.Set("vsn", "1.0.0")
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("realtime: dialing %s: %w", u.Host, err)
	}

	topic := "realtime:public:" + w.opts.Table
	join := phoenixMessage{Topic: topic, Event: "phx_join", Payload: json.RawMessage(`{}`), Ref: "1"}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("realtime: joining %s: %w", topic, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			conn.Close()
		})
	}

	go w.heartbeat(subCtx, conn)
	go w.readLoop(subCtx, conn, date, h, stop)

	logger.Info("realtime subscription opened", "topic", topic, "date", date)
	return stop, nil
}

// heartbeat sends Phoenix heartbeats until the subscription stops.
func (w *Websocket) heartbeat(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	ref := 2
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := phoenixMessage{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage(`{}`),
				Ref:     strconv.Itoa(ref),
			}
			ref++
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn("heartbeat failed", "err", err)
				return
			}
		}
	}
}

// readLoop decodes change events, filters them to the subscribed date,
// drops duplicate snapshots, and invokes the handler.
func (w *Websocket) readLoop(ctx context.Context, conn *websocket.Conn, date string, h Handler, stop func()) {
	defer stop()

	var dedupe deduper
	for {
		var msg phoenixMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				logger.Warn("realtime connection closed", "err", err)
			}
			return
		}

		switch msg.Event {
		case "INSERT", "UPDATE", "postgres_changes":
			var change changePayload
			if err := json.Unmarshal(msg.Payload, &change); err != nil {
				logger.Warn("undecodable change event", "err", err)
				continue
			}
			if change.Record.Date != date {
				continue
			}
			tasks := change.Record.Tasks
			if tasks == nil {
				tasks = []task.Task{}
			}
			if !dedupe.changed(tasks) {
				logger.Debug("duplicate snapshot dropped", "date", date)
				continue
			}
			h(Snapshot{Date: date, Tasks: tasks})
		case "phx_reply", "phx_close", "heartbeat":
			// Protocol chatter; nothing to deliver.
		}
	}
}
