package runenv

import (
	"fmt"
	"strings"
)

// ModuleScriptLines renders the environment-modules section of a batch
// script: an optional purge followed by one module load per entry.
// Empty or whitespace-only entries are dropped.
func ModuleScriptLines(modules []string, purge bool) []string {
	var lines []string
	if purge {
		lines = append(lines, "module purge")
	}
	for _, mod := range modules {
		mod = strings.TrimSpace(mod)
		if mod == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("module load %s", mod))
	}
	return lines
}
