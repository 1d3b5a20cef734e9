package config

import "time"

// NewDefaults returns a Config populated with all default values.
func NewDefaults() *Config {
	return &Config{
		Store: StoreConfig{
			Table: "daily_tasks",
		},
		Retry: RetryConfig{
			BaseDelay:  Duration(2 * time.Second),
			MaxRetries: 3,
		},
		Realtime: RealtimeConfig{
			Transport:    TransportWebsocket,
			PollInterval: Duration(10 * time.Second),
		},
		Cache: CacheConfig{
			Enabled: true,
		},
	}
}
