// Package cmd implements the command-line interface for calmate.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing the scheduling assistant tools
//   - slots: Print free slots of the configured calendar
//   - intent: Run one intent (and optional follow-up replies) and print the results
//   - version: Display version information
//
// All commands read the TOML configuration given by --config and load a
// .env file from the working directory first.
package cmd
