// Package config loads and validates the TOML run configuration. Values
// follow a documented precedence: built-in default, then config file, then
// explicit function parameters at call sites.
package config
