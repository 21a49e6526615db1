// Package config loads the gateway's runtime configuration from multiple
// sources (YAML files, environment variables and an optional .env file, CLI
// flags) with precedence: CLI flags > YAML config > Environment variables >
// Defaults. It selects between a remote configuration store and the built-in
// in-memory one and exposes strongly typed settings to the rest of the
// application.
package config
