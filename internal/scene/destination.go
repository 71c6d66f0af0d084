package scene

import (
	"path/filepath"
	"time"
)

// DestinationDir returns the shelved directory for a scene. The result depends
// only on its arguments.
func DestinationDir(root, itemType string, acquired time.Time, id string) string {
	utc := acquired.UTC()
	return filepath.Join(root, itemType, utc.Format("2006"), utc.Format("01"), utc.Format("02"), id)
}

// Destination returns the shelved directory for r under root.
func (r *Record) Destination(root string) string {
	return DestinationDir(root, r.ItemType, r.Acquired, r.ID)
}
