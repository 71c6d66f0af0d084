// Package testsupport holds fixture builders shared by package tests: a
// temp-directory config and on-disk order trees with master manifests, scene
// files, and metadata sidecars whose digests match their content.
package testsupport
