// Package application wires a sealed configuration snapshot into the HTTP API,
// the metrics endpoint and the server lifecycle, keeping the main package
// focused on CLI parsing and orchestration.
package application
