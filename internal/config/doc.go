// Package config loads the releaseform TOML configuration.
//
// Load starts from Default, overlays the file when one exists, expands "~" in
// path values, and validates the result. The default location is
// ~/.config/releaseform/config.toml, then ./releaseform.toml.
package config
