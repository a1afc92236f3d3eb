// valpkg - valmond release packager
// Copyright (C) 2025 The ALR Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package fsutils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureDirs creates every directory with mode, parents included. An
// existing directory is not an error.
func EnsureDirs(mode os.FileMode, dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, mode); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// RemoveTree deletes root and everything under it. A missing root is fine.
func RemoveTree(root string) error {
	err := os.RemoveAll(root)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MakeExecutable adds the execute bits to path, keeping the rest of its mode.
func MakeExecutable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, fi.Mode()|0o111)
}

// CopyFile copies the contents of src to dst, giving dst the permission bits
// src has. dst is truncated when it exists. Copying a file onto itself is an
// error.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}
	if dfi, err := os.Stat(dst); err == nil && os.SameFile(fi, dfi) {
		return fmt.Errorf("%s and %s are the same file", src, dst)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile does not change the mode of an existing file.
	return os.Chmod(dst, fi.Mode().Perm())
}

// CopyInto copies src into dir under its own base name and returns the
// destination path.
func CopyInto(src, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(src))
	return dst, CopyFile(src, dst)
}
