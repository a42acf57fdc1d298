package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// Standard default permissions
// File: u=rw, g=rw, o=r
const PermFile os.FileMode = 0664

// Dir:  u=rwx, g=rwx, o=rx (Requires +x to traverse)
const PermDir os.FileMode = 0775

// Exec: u=rwx, g=rwx, o=rx (batch scripts handed to the scheduler)
const PermExec os.FileMode = 0775

// FileExists checks whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureDir creates path (and parents) if it does not already exist.
func EnsureDir(path string) error {
	if DirExists(path) {
		return nil
	}
	return os.MkdirAll(path, PermDir)
}

// IsExecutable checks whether path is a regular file with any execute bit set.
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

// IsXML checks whether path has an .xml extension (case-insensitive).
func IsXML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}

// IsWritableDir reports whether the directory can be written to by creating
// and removing a probe file. Stat-based permission checks lie on network
// filesystems, so we actually try.
func IsWritableDir(path string) bool {
	if !DirExists(path) {
		return false
	}
	probe := filepath.Join(path, ".ucvm-submit-writecheck")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY, PermFile)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(probe)
	return true
}
