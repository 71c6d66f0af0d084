// Package shelving runs one shelving pass over a data directory.
//
// Orchestrator.Run moves through fixed stages, strictly in order:
//
//	discover -> derive -> load -> verify -> classify -> plan -> transfer -> cleanup -> done
//
// Each stage logs with a stage field and reports progress to an Observer.
// Per-scene and per-file failures are logged where they occur and folded into
// the Summary; only configuration problems, lock contention, and a live run
// that finds no scenes end a run with an error.
//
// A dry run computes everything a live run would and reports the same counts,
// but short-circuits every mutation: manifest writes, transfers, source
// removal, quarantine moves, ledger writes, and the destination lock.
// Manifests a dry run would have derived are held in memory so the later
// stages see the same scenes.
package shelving
