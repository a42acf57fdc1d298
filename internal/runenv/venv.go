package runenv

import (
	"fmt"
	"path/filepath"

	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
)

// VenvExists checks whether venvDir looks like a Python virtual environment
// (it must carry bin/activate).
func VenvExists(venvDir string) bool {
	if venvDir == "" {
		return false
	}
	return utils.FileExists(filepath.Join(venvDir, "bin", "activate"))
}

// VenvEnv returns the environment entries that activating the virtualenv
// would produce: VIRTUAL_ENV plus a PATH with <venv>/bin prepended.
// PYTHONHOME is not returned; callers must drop it from the inherited
// environment since it overrides the venv's interpreter lookup.
func VenvEnv(venvDir string, inheritedPath string) []string {
	if venvDir == "" {
		return nil
	}
	binDir := filepath.Join(venvDir, "bin")
	return []string{
		fmt.Sprintf("VIRTUAL_ENV=%s", venvDir),
		fmt.Sprintf("PATH=%s", MergeSearchPath(inheritedPath, []string{binDir})),
	}
}

// VenvScriptLines returns the shell lines a batch script uses to activate
// the virtualenv. Sourcing activate is preferred over exporting variables
// so the venv's own deactivate hooks keep working.
func VenvScriptLines(venvDir string) []string {
	if venvDir == "" {
		return nil
	}
	activate := filepath.Join(venvDir, "bin", "activate")
	return []string{fmt.Sprintf("source %s", activate)}
}
