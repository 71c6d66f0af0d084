package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFileVerified streams src to dst, then re-reads dst from disk and
// compares its size and SHA256 against the source stream. dst is removed on
// any mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if err := verifyWritten(dst, srcSize, srcHasher.Sum(nil)); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// verifyWritten hashes path as stored and compares it with the expected size
// and digest.
func verifyWritten(path string, size int64, sum []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reopen copy: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	n, err := io.Copy(hasher, f)
	if err != nil {
		return fmt.Errorf("read back copy: %w", err)
	}
	if n != size {
		return fmt.Errorf("copy size mismatch: source %d bytes, stored %d bytes", size, n)
	}
	if !bytes.Equal(hasher.Sum(nil), sum) {
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

// CopyFilePreserve copies src to dst keeping the source permission bits and
// modification time. The data is written to a hidden temporary file beside dst
// and only published once complete, so an interrupted copy never leaves a
// truncated file at dst. An existing dst is never replaced: os.ErrExist is
// returned instead.
func CopyFilePreserve(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("copy %s: not a regular file", src)
	}

	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".partial-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	_ = tmp.Close()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := CopyFileVerified(src, tmpName); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return fmt.Errorf("preserve mode: %w", err)
	}
	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("preserve mtime: %w", err)
	}
	return publishNoClobber(tmpName, dst)
}

// publishNoClobber moves tmp to dst unless dst already exists. A hard link is
// the atomic no-clobber primitive; filesystems that refuse links fall back to
// an existence check followed by rename.
func publishNoClobber(tmp, dst string) error {
	linkErr := os.Link(tmp, dst)
	if linkErr == nil {
		return nil
	}
	if errors.Is(linkErr, os.ErrExist) {
		return os.ErrExist
	}
	if _, err := os.Lstat(dst); err == nil {
		return os.ErrExist
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(tmp, dst)
}
