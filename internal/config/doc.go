// Package config loads and validates the Lenscap TOML configuration.
//
// Configuration is resolved from an explicit --config path, then
// ~/.config/lenscap/config.toml, then a project-local lenscap.toml. Defaults
// cover everything except the backend base URL, so a fresh install only has
// to point the client at its captioning service.
package config
