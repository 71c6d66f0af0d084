// Package manifest reads Planet delivery manifests and maintains the
// per-scene manifest files the shelving pipeline discovers scenes through.
//
// An order delivery carries one master manifest named manifest.json at its
// root listing every delivered file. Store.DeriveSceneManifests splits the
// image sections of that master into <scene stem>_manifest.json files placed
// next to each scene, so later stages can find scenes with a flat scan via
// Store.FindSceneManifests regardless of how the order was batched.
package manifest
