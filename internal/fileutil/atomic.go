package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
)

// WriteFileAtomic writes data to path through a temporary file in the same
// directory followed by a rename. When replace is false and path already
// exists, os.ErrExist is returned and nothing is written.
func WriteFileAtomic(path string, data []byte, perm os.FileMode, replace bool) error {
	dir := filepath.Dir(path)
	if !replace {
		if info, err := os.Lstat(path); err == nil {
			if info.IsDir() {
				return fmt.Errorf("write %s: path is a directory", path)
			}
			return os.ErrExist
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if replace {
		if err := os.Rename(tmpName, path); err != nil {
			return err
		}
	} else if err := publishNoClobber(tmpName, path); err != nil {
		return err
	}
	syncDirBestEffort(dir)
	return nil
}

// IsCrossDevice reports whether err came from a rename or link that crossed
// filesystems (EXDEV).
func IsCrossDevice(err error) bool {
	if err == nil {
		return false
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}
	return errors.Is(err, syscall.EXDEV)
}

func syncDirBestEffort(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}

// MoveFile moves src to dst without replacing an existing dst, in which case
// os.ErrExist is returned and src is untouched. Moves across filesystems copy
// the data, preserving mode and mtime, then remove src.
func MoveFile(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return os.ErrExist
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	linkErr := os.Link(src, dst)
	switch {
	case linkErr == nil:
		return os.Remove(src)
	case errors.Is(linkErr, os.ErrExist):
		return os.ErrExist
	case IsCrossDevice(linkErr):
		if err := CopyFilePreserve(src, dst); err != nil {
			return err
		}
		return os.Remove(src)
	}

	// Filesystems without hard link support still rename within a volume.
	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	if IsCrossDevice(renameErr) {
		if err := CopyFilePreserve(src, dst); err != nil {
			return err
		}
		return os.Remove(src)
	}
	return renameErr
}
