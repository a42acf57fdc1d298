package runenv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envValue(list []string, key string) (string, bool) {
	prefix := key + "="
	for _, entry := range list {
		if strings.HasPrefix(entry, prefix) {
			return strings.TrimPrefix(entry, prefix), true
		}
	}
	return "", false
}

func TestAssembleLibraryPath(t *testing.T) {
	modelRoot := t.TempDir()
	pluginRoot := t.TempDir()
	makeModelTree(t, modelRoot, []string{"cvms4"}, nil)
	makeModelTree(t, pluginRoot, []string{"euclid3", "proj4"}, nil)

	t.Setenv("LD_LIBRARY_PATH", "/usr/lib64")

	env := Assemble(Options{
		InstallRoot: "/opt/ucvm",
		ModelsDir:   modelRoot,
		PluginsDir:  pluginRoot,
	})

	want := strings.Join([]string{
		filepath.Join(modelRoot, "cvms4", "lib"),
		filepath.Join(pluginRoot, "euclid3", "lib"),
		filepath.Join(pluginRoot, "proj4", "lib"),
		"/usr/lib64",
	}, ":")
	if env.LibraryPath != want {
		t.Errorf("LibraryPath = %q, want %q", env.LibraryPath, want)
	}

	if got, ok := envValue(env.EnvList, "LD_LIBRARY_PATH"); !ok || got != want {
		t.Errorf("EnvList LD_LIBRARY_PATH = %q (present=%v), want %q", got, ok, want)
	}
	if got, ok := envValue(env.EnvList, "UCVM_INSTALL_PATH"); !ok || got != "/opt/ucvm" {
		t.Errorf("EnvList UCVM_INSTALL_PATH = %q (present=%v)", got, ok)
	}
}

func TestAssembleVenv(t *testing.T) {
	venv := t.TempDir()
	if err := os.MkdirAll(filepath.Join(venv, "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(venv, "bin", "activate"), []byte("# venv"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PATH", "/usr/bin:/bin")
	t.Setenv("PYTHONHOME", "/usr")

	env := Assemble(Options{VenvDir: venv})

	if got, ok := envValue(env.EnvList, "VIRTUAL_ENV"); !ok || got != venv {
		t.Errorf("VIRTUAL_ENV = %q (present=%v), want %q", got, ok, venv)
	}
	if got, _ := envValue(env.EnvList, "PATH"); !strings.HasPrefix(got, filepath.Join(venv, "bin")+":") {
		t.Errorf("PATH = %q does not start with venv bin", got)
	}
	if _, ok := envValue(env.EnvList, "PYTHONHOME"); ok {
		t.Errorf("PYTHONHOME should be dropped when a venv is active")
	}
}

func TestAssembleExtraOverrides(t *testing.T) {
	t.Setenv("OMP_NUM_THREADS", "1")

	env := Assemble(Options{
		Extra: []string{"OMP_NUM_THREADS=4", "not-a-pair", ""},
	})

	if got, _ := envValue(env.EnvList, "OMP_NUM_THREADS"); got != "4" {
		t.Errorf("OMP_NUM_THREADS = %q, want 4", got)
	}
}

func TestMergeProcessEnvAppendsSorted(t *testing.T) {
	base := []string{"HOME=/home/me", "SHELL=/bin/sh"}
	overrides := map[string]string{
		"ZEBRA": "z",
		"ALPHA": "a",
		"HOME":  "/home/you",
		"MIKE":  "m",
	}

	got := mergeProcessEnv(base, overrides, nil)

	want := []string{
		"HOME=/home/you",
		"SHELL=/bin/sh",
		"ALPHA=a",
		"MIKE=m",
		"ZEBRA=z",
	}
	if len(got) != len(want) {
		t.Fatalf("merged env = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestScriptLines(t *testing.T) {
	modelRoot := t.TempDir()
	makeModelTree(t, modelRoot, []string{"cvms4"}, nil)

	venv := filepath.Join(t.TempDir(), "venv")

	env := Assemble(Options{
		InstallRoot: "/opt/ucvm",
		ModelsDir:   modelRoot,
		VenvDir:     venv,
		Modules:     []string{"gcc/8.3.0", "openmpi/4.0.2", ""},
		ModulePurge: true,
		Extra:       []string{"OMP_NUM_THREADS=1"},
	})

	script := strings.Join(env.ScriptLines, "\n")

	for _, want := range []string{
		"module purge",
		"module load gcc/8.3.0",
		"module load openmpi/4.0.2",
		"source " + filepath.Join(venv, "bin", "activate"),
		"export UCVM_INSTALL_PATH=/opt/ucvm",
		"export LD_LIBRARY_PATH=" + filepath.Join(modelRoot, "cvms4", "lib") + ":$LD_LIBRARY_PATH",
		"export OMP_NUM_THREADS=1",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script lines missing %q\nGot:\n%s", want, script)
		}
	}

	// module lines must come before the venv activation, which must come
	// before the exports
	purgeIdx := strings.Index(script, "module purge")
	sourceIdx := strings.Index(script, "source ")
	exportIdx := strings.Index(script, "export UCVM_INSTALL_PATH")
	if !(purgeIdx < sourceIdx && sourceIdx < exportIdx) {
		t.Errorf("script sections out of order:\n%s", script)
	}
}
