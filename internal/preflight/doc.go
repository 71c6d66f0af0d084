// Package preflight provides readiness checks for the filesystem paths a
// shelving run depends on.
//
// The shelve command calls RunAll before any manifest is derived or file is
// transferred. A failed check is a configuration error: the run stops with a
// non-zero exit and nothing on disk has changed. Checks are gated by the run
// mode, so a dry run only needs read access and the same-volume check only
// runs when hard links were requested.
package preflight
