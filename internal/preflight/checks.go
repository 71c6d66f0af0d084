package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"planetshelf/internal/transfer"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckCreatableDirectory passes when path is a writable directory or can be
// created beneath its nearest existing ancestor.
func CheckCreatableDirectory(name, path string) Result {
	current := filepath.Clean(path)
	for {
		info, err := os.Stat(current)
		if err == nil {
			if !info.IsDir() {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s is not a directory)", path, current)}
			}
			if err := unix.Access(current, unix.W_OK|unix.X_OK); err != nil {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s not writable: %v)", path, current, err)}
			}
			if current == filepath.Clean(path) {
				return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
			}
			return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
		}
		if !errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
		}
		parent := filepath.Dir(current)
		if parent == current {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", path)}
		}
		current = parent
	}
}

// CheckSameVolume verifies that hard links can be made from the data
// directory into the destination.
func CheckSameVolume(dataDir, destinationRoot string) Result {
	const name = "Hard links"
	caps := transfer.Probe(dataDir, destinationRoot)
	if !caps.Hardlinks {
		return Result{Name: name, Detail: caps.Reason + "; use --transfer_method copy"}
	}
	return Result{Name: name, Passed: true, Detail: "data and destination share a volume"}
}
