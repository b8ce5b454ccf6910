// Package config loads, normalizes, and validates FocusLens configuration.
//
// Configuration is a single TOML file. Load applies repository defaults,
// overlays the file when it exists, expands ~ in every path field, and then
// validates the result so downstream packages never re-check basics like
// positive intervals or a resolvable project root.
//
// The embedded sample_config.toml is the documentation of record for every
// key; CreateSample writes it out for new installations.
package config
