// Package config loads, normalizes, and validates planetshelf configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PLANETSHELF_DESTINATION_DIR. The Config type centralizes every knob the
// shelving pipeline and CLI need, so the destination tree, quarantine
// directory, ledger database, and logging outputs are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical method names, and clear validation errors.
package config
