// Package schema declares which settings exist. A schema is a YAML document listing
// every setting with its help text, default and kind; applying it to an argv.Store
// registers the settings and records their defaults before any parsing happens.
package schema
