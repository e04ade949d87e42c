// Package argv implements the runtime configuration store: named string settings
// accumulated from command-line tokens and line-oriented configuration files, with
// incremental (+=) assignments, include directories, typed accessors and rendering of
// the effective configuration back into config-file text.
//
// A Store is built and filled during start-up by a single goroutine. Once start-up is
// over, call Seal and hand Snapshot values to concurrent consumers.
package argv
