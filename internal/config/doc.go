// Package config loads, validates, and defaults Freighter's TOML
// configuration.
//
// Load resolves the config file (explicit path, ~/.config/freighter, or a
// project-local freighter.toml), decodes it over Default(), normalizes paths,
// and validates every section. Components receive a *Config rather than
// reading files themselves.
package config
