//go:build unix

package transfer

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

func platformProbe(src, dst string) Capabilities {
	srcDev, err := deviceOf(src)
	if err != nil {
		return Capabilities{Reason: fmt.Sprintf("stat %s: %v", src, err)}
	}
	dstDev, err := deviceOf(dst)
	if err != nil {
		return Capabilities{Reason: fmt.Sprintf("stat %s: %v", dst, err)}
	}
	if srcDev != dstDev {
		return Capabilities{Reason: "data and destination directories are on different volumes"}
	}
	return Capabilities{Hardlinks: true}
}

// deviceOf returns the device id of path or of its nearest existing ancestor.
func deviceOf(path string) (uint64, error) {
	current := filepath.Clean(path)
	for {
		var st unix.Stat_t
		err := unix.Stat(current, &st)
		if err == nil {
			return uint64(st.Dev), nil
		}
		if !errors.Is(err, unix.ENOENT) {
			return 0, err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return 0, err
		}
		current = parent
	}
}
