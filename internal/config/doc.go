// Package config loads, normalizes, and validates cardcap configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CARDCAP_UPLOAD_SECRET
// environment fallback. The Config type centralizes every knob the capture
// run and CLI need: the renderer session, print selection policy, art
// pipeline, storage backend and overwrite rules.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, lower-cased set codes, and clear validation errors.
package config
