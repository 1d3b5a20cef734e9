package config

import "time"

// Duration is a time.Duration that decodes from TOML strings like "2s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the top-level structure mapping to daydeck.toml.
type Config struct {
	Store    StoreConfig    `toml:"store"`
	Retry    RetryConfig    `toml:"retry"`
	Realtime RealtimeConfig `toml:"realtime"`
	Cache    CacheConfig    `toml:"cache"`
}

// StoreConfig maps to the [store] section.
type StoreConfig struct {
	// URL is the REST endpoint of the document store, e.g.
	// https://xyzcompany.supabase.co/rest/v1.
	URL string `toml:"url"`

	// APIKey authenticates every request. The DAYDECK_API_KEY environment
	// variable overrides it so keys can stay out of the config file.
	APIKey string `toml:"api_key"`

	// Table is the day-document table name.
	Table string `toml:"table"`

	// ConflictChecks enables the updated_at write precondition so
	// concurrent edits to different tasks no longer silently overwrite
	// each other. Off by default: last-writer-wins is the documented
	// legacy behavior.
	ConflictChecks bool `toml:"conflict_checks"`
}

// RetryConfig maps to the [retry] section.
type RetryConfig struct {
	// BaseDelay is the delay before the first retry of a failed update.
	BaseDelay Duration `toml:"base_delay"`

	// MaxRetries bounds the exponential backoff sequence.
	MaxRetries int `toml:"max_retries"`
}

// RealtimeTransport selects how live snapshots are delivered.
type RealtimeTransport string

const (
	// TransportWebsocket subscribes over the store's realtime socket.
	TransportWebsocket RealtimeTransport = "websocket"

	// TransportPolling refetches the day document on an interval. The
	// degraded mode for plans without realtime.
	TransportPolling RealtimeTransport = "polling"

	// TransportOff disables live updates entirely.
	TransportOff RealtimeTransport = "off"
)

// RealtimeConfig maps to the [realtime] section.
type RealtimeConfig struct {
	Transport RealtimeTransport `toml:"transport"`

	// URL is the websocket endpoint, e.g.
	// wss://xyzcompany.supabase.co/realtime/v1/websocket. Required when
	// Transport is "websocket".
	URL string `toml:"url"`

	// PollInterval applies when Transport is "polling".
	PollInterval Duration `toml:"poll_interval"`
}

// CacheConfig maps to the [cache] section.
type CacheConfig struct {
	// Enabled mirrors day documents to local JSON files and serves them
	// when the store is unreachable.
	Enabled bool `toml:"enabled"`

	// Dir overrides the cache directory (default: user cache dir +
	// "daydeck").
	Dir string `toml:"dir"`
}
