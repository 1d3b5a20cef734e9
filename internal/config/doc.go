// Package config loads and validates daydeck.toml.
package config
