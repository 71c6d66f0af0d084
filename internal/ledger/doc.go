// Package ledger records which scenes are on the shelf.
//
// The ledger is a SQLite database (modernc.org/sqlite, no cgo) holding one
// row per shelved scene. Rows are upserted by scene id after a run shelves
// every file of a scene, so rerunning over the same data only refreshes the
// run id and timestamp. Schema changes ship as embedded migrations applied in
// file name order and tracked in schema_migrations.
package ledger
