// Package main hosts the planetshelf CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into shelving
// runs, manifest derivation, ledger listings, and configuration
// scaffolding. It resolves configuration, builds the run logger, and renders
// summaries so the internal packages stay free of terminal concerns.
//
// Keep this package lean: new behaviour belongs in the internal packages
// first and is surfaced here through dedicated commands or flags.
package main
