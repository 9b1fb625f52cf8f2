// Package config provides configuration loading, validation, and
// hot-reload support for meridian.
//
// Configuration is read from a YAML file, merged with defaults, then
// overridden by MERIDIAN_* environment variables, and finally
// validated. The loaded configuration can be held as a process-wide
// singleton and reloaded at runtime through a file watcher.
//
// Loading sequence:
//
//  1. Parse YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate the final configuration
//
// Environment variables follow the naming convention
// MERIDIAN_SECTION_FIELD, e.g. MERIDIAN_STORAGE_SQLITE_PATH or
// MERIDIAN_ALERTS_EVALUATION_INTERVAL.
package config
