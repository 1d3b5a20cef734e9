package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for internal consistency. It does not
// verify that the store is reachable.
func (c *Config) Validate() error {
	if c.Store.Table == "" {
		return fmt.Errorf("config: store.table must not be empty")
	}
	if c.Store.URL != "" && !strings.HasPrefix(c.Store.URL, "http://") && !strings.HasPrefix(c.Store.URL, "https://") {
		return fmt.Errorf("config: store.url must start with http:// or https://")
	}
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("config: retry.base_delay must be positive")
	}
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("config: retry.max_retries must be at least 1")
	}
	switch c.Realtime.Transport {
	case TransportWebsocket, TransportPolling, TransportOff:
	default:
		return fmt.Errorf("config: realtime.transport must be websocket, polling, or off (got %q)", c.Realtime.Transport)
	}
	if c.Realtime.Transport == TransportWebsocket && c.Realtime.URL != "" &&
		!strings.HasPrefix(c.Realtime.URL, "ws://") && !strings.HasPrefix(c.Realtime.URL, "wss://") {
		return fmt.Errorf("config: realtime.url must start with ws:// or wss://")
	}
	if c.Realtime.Transport == TransportPolling && c.Realtime.PollInterval <= 0 {
		return fmt.Errorf("config: realtime.poll_interval must be positive")
	}
	return nil
}
