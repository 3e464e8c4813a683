// Package cmd provides the command-line interface for picopack.
//
// This package implements all CLI commands using the Cobra framework,
// executed through fang for styled help and errors.
//
// # Available Commands
//
//   - (root): build the fragment directory into a cartridge, optionally watching
//   - watch: build, then rebuild on every change until interrupted
//   - inspect: list the sections of a cartridge
//   - config show, config init: print or scaffold .picopack.yml
//   - version: print build information
//
// # Command Examples
//
//	// Build src/*.lua into the only .p8 file in the working directory
//	picopack
//
//	// Build lua/*.lua into game.p8 and keep watching
//	picopack game.p8 -i lua/ -w
//
//	// See what a build would produce
//	picopack --dry-run --log-level debug
package cmd
