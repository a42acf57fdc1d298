package launcher

import (
	"errors"
	"reflect"
	"testing"
)

func TestTypeFromName(t *testing.T) {
	tests := map[string]LauncherType{
		"aprun":         LauncherAprun,
		"srun":          LauncherSrun,
		"mpirun":        LauncherMpirun,
		"mpiexec":       LauncherMpiexec,
		"mpiexec.hydra": LauncherMpiexec,
		"qsub":          LauncherUnknown,
	}
	for name, want := range tests {
		if got := typeFromName(name); got != want {
			t.Errorf("typeFromName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestArgs(t *testing.T) {
	tests := []struct {
		typ  LauncherType
		want []string
	}{
		{LauncherAprun, []string{"-n", "80", "/opt/ucvm/bin/ucvm_mesh_create_mpi", "mesh.xml"}},
		{LauncherSrun, []string{"-n", "80", "/opt/ucvm/bin/ucvm_mesh_create_mpi", "mesh.xml"}},
		{LauncherMpirun, []string{"-np", "80", "/opt/ucvm/bin/ucvm_mesh_create_mpi", "mesh.xml"}},
		{LauncherMpiexec, []string{"-np", "80", "/opt/ucvm/bin/ucvm_mesh_create_mpi", "mesh.xml"}},
	}

	for _, tt := range tests {
		l := &Launcher{bin: "/usr/bin/" + string(tt.typ), typ: tt.typ}
		got, err := l.Args(80, "/opt/ucvm/bin/ucvm_mesh_create_mpi", "mesh.xml")
		if err != nil {
			t.Errorf("%s: Args failed: %v", tt.typ, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: Args = %v, want %v", tt.typ, got, tt.want)
		}
	}
}

func TestArgsRejectsBadRanks(t *testing.T) {
	l := &Launcher{bin: "/usr/bin/aprun", typ: LauncherAprun}
	if _, err := l.Args(0, "exe"); !errors.Is(err, ErrInvalidRankCount) {
		t.Errorf("expected ErrInvalidRankCount, got %v", err)
	}
	if _, err := l.Args(-4, "exe"); !errors.Is(err, ErrInvalidRankCount) {
		t.Errorf("expected ErrInvalidRankCount, got %v", err)
	}
}

func TestCommandLine(t *testing.T) {
	l := &Launcher{bin: "/usr/bin/aprun", typ: LauncherAprun}
	got, err := l.CommandLine(80, "/opt/ucvm/bin/ucvm_mesh_create_mpi", "la_habra.xml")
	if err != nil {
		t.Fatalf("CommandLine failed: %v", err)
	}
	want := "/usr/bin/aprun -n 80 /opt/ucvm/bin/ucvm_mesh_create_mpi la_habra.xml"
	if got != want {
		t.Errorf("CommandLine = %q, want %q", got, want)
	}
}

func TestMeetsMinimum(t *testing.T) {
	srun := &Launcher{bin: "/usr/bin/srun", typ: LauncherSrun}

	if !srun.MeetsMinimum("20.11.8") {
		t.Errorf("20.11.8 should satisfy the srun minimum")
	}
	if !srun.MeetsMinimum("17.02.0") {
		t.Errorf("the exact floor version should pass")
	}
	// Zero-padded components are how SLURM actually versions old releases
	if srun.MeetsMinimum("15.08.2") {
		t.Errorf("15.08.2 should fail the srun minimum")
	}
	if srun.MeetsMinimum("16.05.9") {
		t.Errorf("16.05.9 should fail the srun minimum")
	}
	if !srun.MeetsMinimum("") {
		t.Errorf("unknown version should pass")
	}

	// aprun has no floor
	aprun := &Launcher{bin: "/usr/bin/aprun", typ: LauncherAprun}
	if !aprun.MeetsMinimum("1.0") {
		t.Errorf("launchers without a floor should always pass")
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"20.11.8", "17.02.0", 1},
		{"15.08.2", "17.02.0", -1},
		{"17.02.0", "17.02.0", 0},
		{"1.10.0", "1.9", 1}, // numeric, not lexical
		{"4.0", "4.0.0", 0},
		{"garbage", "1.0.0", 0}, // unparseable compares equal
	}
	for _, tt := range tests {
		if got := compareVersions(tt.v1, tt.v2); got != tt.want {
			t.Errorf("compareVersions(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.want)
		}
	}
}

func TestVersionTokenExtraction(t *testing.T) {
	tests := map[string]string{
		"slurm 20.11.8":                        "20.11.8",
		"mpirun (Open MPI) 4.0.2":              "4.0.2",
		"aprun (ALPS) 6.6.59":                  "6.6.59",
		"Intel(R) MPI Library 2019 Update 7":   "",
		"HYDRA build details: Version: 3.3.2":  "3.3.2",
	}
	for input, want := range tests {
		if got := versionTokenRe.FindString(input); got != want {
			t.Errorf("version token of %q = %q, want %q", input, got, want)
		}
	}
}
