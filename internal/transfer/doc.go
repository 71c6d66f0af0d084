// Package transfer performs the file operations of a shelving run: copying or
// hard-linking planned pairs onto the shelf, removing sources that were
// shelved, and moving or deleting the files of unshelveable scenes.
//
// No operation ever replaces an existing file. A pair whose destination is
// already present is Skipped, and a quarantine target that exists keeps its
// source in place. Every failure is captured in the returned Outcome or
// Disposition and logged at the point it happens; the engine never aborts a
// batch.
//
// The hard link capability is probed once, at engine construction, from the
// platform and the device ids of the data and destination directories. Tests
// replace the probe through SetProbeForTests.
package transfer
