// Package faults defines the error taxonomy shared by the shelving pipeline.
//
// Every error that crosses a package boundary is tagged with one of the
// sentinel markers below through Wrap, so callers can classify failures with
// errors.Is while the message still carries the stage and operation that
// produced it. Only configuration and zero-scene conditions are fatal to a
// run; everything else is converted into a per-scene or per-file outcome by
// the component that observed it.
package faults
