// Package config loads and validates asiread configuration: a TOML file
// layered over defaults, with ASIREAD_* environment variables (optionally
// sourced from a .env file) taking final precedence.
package config
