package runenv

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
)

// Options configures environment assembly for a mesh job.
type Options struct {
	InstallRoot string   // UCVM installation root (exported as UCVM_INSTALL_PATH)
	ModelsDir   string   // Root whose children are installed velocity models
	PluginsDir  string   // Root whose children are shared plugin libraries
	VenvDir     string   // Python virtualenv root ("" = no venv)
	Modules     []string // Environment modules to load in batch scripts
	ModulePurge bool     // Run `module purge` before loads
	Extra       []string // Additional KEY=VALUE overrides, applied last
}

// Environment is the assembled runtime environment in both the forms the
// tool needs: a process env list for local launches and shell lines for
// generated batch scripts.
type Environment struct {
	LibraryPath string   // Final LD_LIBRARY_PATH value
	LibDirs     []string // The scanned plugin lib directories, in order
	EnvList     []string // Full KEY=VALUE list for exec
	ScriptLines []string // Shell lines for a batch script
}

// Assemble builds the runtime environment. The inherited process
// environment is the base; the scanned library directories are prepended to
// LD_LIBRARY_PATH, the venv bin directory to PATH, and Extra entries win
// over everything.
func Assemble(opts Options) *Environment {
	libDirs := CollectLibraryDirs(opts.ModelsDir, opts.PluginsDir)
	libraryPath := MergeSearchPath(os.Getenv("LD_LIBRARY_PATH"), libDirs)

	env := &Environment{
		LibraryPath: libraryPath,
		LibDirs:     libDirs,
	}

	overrides := map[string]string{
		"LD_LIBRARY_PATH": libraryPath,
	}
	if opts.InstallRoot != "" {
		overrides["UCVM_INSTALL_PATH"] = opts.InstallRoot
	}

	dropped := map[string]bool{}
	if VenvExists(opts.VenvDir) {
		for _, entry := range VenvEnv(opts.VenvDir, os.Getenv("PATH")) {
			key, value, _ := strings.Cut(entry, "=")
			overrides[key] = value
		}
		// PYTHONHOME would shadow the venv interpreter
		dropped["PYTHONHOME"] = true
	} else if opts.VenvDir != "" {
		utils.PrintWarning("Virtualenv not found at %s; skipping activation", utils.StylePath(opts.VenvDir))
	}

	for _, setting := range opts.Extra {
		setting = strings.TrimSpace(setting)
		if setting == "" {
			continue
		}
		key, value, ok := strings.Cut(setting, "=")
		if !ok {
			utils.PrintWarning("Invalid env setting %s. It should be in KEY=VALUE format. Skipping.", utils.StyleName(setting))
			continue
		}
		overrides[key] = value
	}

	env.EnvList = mergeProcessEnv(os.Environ(), overrides, dropped)
	env.ScriptLines = scriptLines(opts, libDirs)

	return env
}

// mergeProcessEnv overlays overrides onto base, dropping keys in dropped.
// Base order is preserved; keys not present in base are appended in sorted
// order so the result is reproducible.
func mergeProcessEnv(base []string, overrides map[string]string, dropped map[string]bool) []string {
	applied := make(map[string]bool, len(overrides))
	out := make([]string, 0, len(base)+len(overrides))

	for _, entry := range base {
		key, _, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if dropped[key] {
			continue
		}
		if value, hit := overrides[key]; hit {
			out = append(out, fmt.Sprintf("%s=%s", key, value))
			applied[key] = true
			continue
		}
		out = append(out, entry)
	}

	var added []string
	for key := range overrides {
		if !applied[key] {
			added = append(added, key)
		}
	}
	sort.Strings(added)
	for _, key := range added {
		out = append(out, fmt.Sprintf("%s=%s", key, overrides[key]))
	}

	return out
}

// scriptLines renders the environment section of a generated batch script:
// module loads, venv activation, then exports. The export for
// LD_LIBRARY_PATH references the inherited value so the batch environment
// composes with whatever the module loads set up.
func scriptLines(opts Options, libDirs []string) []string {
	var lines []string

	lines = append(lines, ModuleScriptLines(opts.Modules, opts.ModulePurge)...)
	lines = append(lines, VenvScriptLines(opts.VenvDir)...)

	if opts.InstallRoot != "" {
		lines = append(lines, fmt.Sprintf("export UCVM_INSTALL_PATH=%s", opts.InstallRoot))
	}

	// Scanned directories first, then whatever module loads contributed.
	if len(libDirs) > 0 {
		lines = append(lines, fmt.Sprintf("export LD_LIBRARY_PATH=%s:$LD_LIBRARY_PATH",
			strings.Join(libDirs, ":")))
	}

	for _, setting := range opts.Extra {
		setting = strings.TrimSpace(setting)
		if setting == "" || !strings.Contains(setting, "=") {
			continue
		}
		lines = append(lines, fmt.Sprintf("export %s", setting))
	}

	return lines
}
