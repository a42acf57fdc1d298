// Package runenv assembles the runtime environment for UCVM mesh jobs:
// the dynamic library search path derived from the installed model and
// plugin trees, the Python virtualenv, and any environment modules.
package runenv

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
)

// ScanLibDirs lists the immediate subdirectories of root and returns the
// lib/ directory of each one that has it, in lexical order. A missing root
// is an error; a root with no lib-bearing children returns an empty slice.
func ScanLibDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	libDirs := make([]string, 0, len(names))
	for _, name := range names {
		libDir := filepath.Join(root, name, "lib")
		if utils.DirExists(libDir) {
			libDirs = append(libDirs, libDir)
		}
	}

	return libDirs, nil
}

// CollectLibraryDirs scans each root in order and concatenates the results.
// Roots that do not exist are skipped with a warning rather than failing the
// whole assembly: a UCVM installation without plugin models is still usable.
func CollectLibraryDirs(roots ...string) []string {
	var dirs []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		found, err := ScanLibDirs(root)
		if err != nil {
			utils.PrintWarning("Cannot scan %s for plugin libraries: %v", utils.StylePath(root), err)
			continue
		}
		if len(found) == 0 {
			utils.PrintDebug("No plugin lib directories under %s", root)
		}
		dirs = append(dirs, found...)
	}
	return dirs
}

// MergeSearchPath prepends entries to an existing colon-delimited search
// path, dropping duplicates while preserving first-seen order.
func MergeSearchPath(existing string, entries []string) string {
	seen := make(map[string]bool)
	merged := make([]string, 0, len(entries)+4)

	appendPath := func(p string) {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		merged = append(merged, p)
	}

	for _, entry := range entries {
		appendPath(entry)
	}
	for _, entry := range strings.Split(existing, ":") {
		appendPath(entry)
	}

	return strings.Join(merged, ":")
}
