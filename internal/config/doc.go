// Package config loads and validates the danmux configuration.
//
// Configuration is a single TOML file resolved from an explicit --config
// flag, ~/.config/danmux/config.toml, or ./danmux.toml. The resulting
// Config struct is passed down to every adapter; nothing else in the
// repository reads the environment.
package config
