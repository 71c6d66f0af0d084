// Package scene models one delivered satellite scene and decides whether it
// can be shelved.
//
// A Record is populated in explicit stages. New reads the per-scene manifest
// result, resolves the scene identifier, discovers auxiliary files beside the
// scene, and parses the XML and JSON sidecars for acquisition metadata.
// Verify digests the scene file against the manifest. Classify applies the
// shelving policy and records every reason a scene is held back. Nothing is
// computed lazily, so a record's state is always the product of the stages
// that have run.
//
// DestinationDir is the pure function mapping a scene onto the shelved tree:
// root/<item_type>/<YYYY>/<MM>/<DD>/<scene_id>.
package scene
