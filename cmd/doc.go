// Package cmd implements the command-line interface for the dRS record
// store. It provides a hierarchical command structure with operations for
// running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - record: Commands for record store operations (create, read, update, delete, etc.)
//   - serve: Commands for starting and configuring the dRS server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See drs -help for a list of all commands.
package cmd
