// Package config loads the settings of the confstore inspection server itself from
// multiple sources (YAML file, CONFSTORE_* environment variables, CLI flags) with
// precedence: CLI flags > YAML config > Environment variables > Defaults.
//
// The settings served by the inspection server are managed by package argv, not here.
package config
