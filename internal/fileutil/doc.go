// Package fileutil holds the filesystem primitives the shelving pipeline
// builds on: verified copies that never expose a partially written
// destination, atomic small-file writes, and cross-device error detection.
package fileutil
