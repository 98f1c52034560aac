// Package config loads, normalizes, and validates crashqueue configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CRASHQUEUE_API_KEY. The Config type centralizes every knob the delivery loop
// and CLI need, so the minidump directory, state directory, and collector
// endpoint are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
