// Package config loads, normalizes, and validates the lightbox TOML
// configuration. Load resolves an explicit path first, then the default
// user config location, then a project-local lightbox.toml.
package config
