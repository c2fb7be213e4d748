// Package cmd implements the command-line interface for bioKV. It provides
// a hierarchical command structure for creating and inspecting record
// stores and for moving records in and out of them.
//
// The package is organized into several subpackages:
//
//   - store: Commands for record store operations (create, get, put, keys, etc.)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See biokv -help for a list of all commands.
package cmd
