package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsDerivesInstallRoot(t *testing.T) {
	orig, had := os.LookupEnv("UCVM_INSTALL_PATH")
	os.Unsetenv("UCVM_INSTALL_PATH")
	defer func() {
		if had {
			os.Setenv("UCVM_INSTALL_PATH", orig)
		}
	}()

	LoadDefaults("/opt/ucvm-19.4/bin/ucvm-submit")

	if Global.InstallRoot != "/opt/ucvm-19.4" {
		t.Errorf("InstallRoot = %q; want /opt/ucvm-19.4", Global.InstallRoot)
	}
	if Global.ModelsDir != filepath.Join("/opt/ucvm-19.4", "model") {
		t.Errorf("ModelsDir = %q", Global.ModelsDir)
	}
	if Global.PluginsDir != filepath.Join("/opt/ucvm-19.4", "lib") {
		t.Errorf("PluginsDir = %q", Global.PluginsDir)
	}
	if Global.MeshBin != filepath.Join("/opt/ucvm-19.4", "bin", MeshBinName) {
		t.Errorf("MeshBin = %q", Global.MeshBin)
	}
	if Global.Nodes != 5 || Global.Ppn != 16 {
		t.Errorf("default geometry = %dx%d; want 5x16", Global.Nodes, Global.Ppn)
	}
}

func TestLoadDefaultsHonorsInstallEnv(t *testing.T) {
	orig, had := os.LookupEnv("UCVM_INSTALL_PATH")
	os.Setenv("UCVM_INSTALL_PATH", "/scratch/ucvm")
	defer func() {
		if had {
			os.Setenv("UCVM_INSTALL_PATH", orig)
		} else {
			os.Unsetenv("UCVM_INSTALL_PATH")
		}
	}()

	LoadDefaults("/usr/local/bin/ucvm-submit")

	if Global.InstallRoot != "/scratch/ucvm" {
		t.Errorf("InstallRoot = %q; want /scratch/ucvm", Global.InstallRoot)
	}
}

func TestValidateBinary(t *testing.T) {
	tmp := t.TempDir()

	exe := filepath.Join(tmp, "qsub")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if !ValidateBinary(exe) {
		t.Errorf("expected executable file to validate")
	}

	plain := filepath.Join(tmp, "notes.txt")
	if err := os.WriteFile(plain, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if ValidateBinary(plain) {
		t.Errorf("non-executable file should not validate")
	}

	if ValidateBinary("") {
		t.Errorf("empty path should not validate")
	}
	if ValidateBinary(filepath.Join(tmp, "missing")) {
		t.Errorf("missing path should not validate")
	}
}
