// Package launcher abstracts the MPI launchers that start
// ucvm_mesh_create_mpi across the allocated nodes.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
)

// LauncherType identifies the MPI launcher flavor.
type LauncherType string

const (
	LauncherUnknown LauncherType = ""
	LauncherAprun   LauncherType = "aprun"   // Cray ALPS
	LauncherSrun    LauncherType = "srun"    // SLURM
	LauncherMpirun  LauncherType = "mpirun"  // Open MPI / MPICH
	LauncherMpiexec LauncherType = "mpiexec" // MPI standard frontend
)

var (
	// ErrLauncherNotFound indicates no MPI launcher binary was found
	ErrLauncherNotFound = errors.New("MPI launcher not found in PATH")

	// ErrInvalidRankCount indicates a non-positive rank count
	ErrInvalidRankCount = errors.New("invalid rank count")
)

// detectOrder is the preference order for launcher discovery. Cray aprun
// first: the packaged workflow targets Cray systems.
var detectOrder = []LauncherType{LauncherAprun, LauncherSrun, LauncherMpirun, LauncherMpiexec}

// Launcher wraps a concrete MPI launcher binary.
type Launcher struct {
	bin string
	typ LauncherType
}

// New creates a launcher from an explicit binary path, inferring the flavor
// from the binary name.
func New(bin string) (*Launcher, error) {
	if bin == "" {
		return Detect()
	}

	if !filepath.IsAbs(bin) {
		resolved, err := exec.LookPath(bin)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLauncherNotFound, err)
		}
		bin = resolved
	} else if !utils.IsExecutable(bin) {
		return nil, fmt.Errorf("%w: %s is not executable", ErrLauncherNotFound, bin)
	}

	typ := typeFromName(filepath.Base(bin))
	if typ == LauncherUnknown {
		// Unrecognized name still works; assume mpiexec-style flags
		utils.PrintDebug("Unknown launcher %s; assuming mpiexec-style arguments", bin)
		typ = LauncherMpiexec
	}

	return &Launcher{bin: bin, typ: typ}, nil
}

// Default returns an aprun launcher without touching PATH. The launcher
// runs on the compute nodes, not on the submitting host, so script
// rendering can proceed even when no MPI stack is installed locally.
func Default() *Launcher {
	return &Launcher{bin: string(LauncherAprun), typ: LauncherAprun}
}

// Detect finds the first available launcher in preference order.
func Detect() (*Launcher, error) {
	for _, typ := range detectOrder {
		if path, err := exec.LookPath(string(typ)); err == nil {
			return &Launcher{bin: path, typ: typ}, nil
		}
	}
	return nil, ErrLauncherNotFound
}

func typeFromName(name string) LauncherType {
	switch name {
	case "aprun":
		return LauncherAprun
	case "srun":
		return LauncherSrun
	case "mpirun":
		return LauncherMpirun
	case "mpiexec", "mpiexec.hydra":
		return LauncherMpiexec
	default:
		return LauncherUnknown
	}
}

// Type returns the launcher flavor.
func (l *Launcher) Type() LauncherType { return l.typ }

// Bin returns the launcher binary path.
func (l *Launcher) Bin() string { return l.bin }

// rankFlag returns the flag used to set the total rank count.
func (l *Launcher) rankFlag() string {
	switch l.typ {
	case LauncherMpirun, LauncherMpiexec:
		return "-np"
	default:
		return "-n"
	}
}

// Args builds the launcher argument list for running exe with the given
// rank count.
func (l *Launcher) Args(ranks int, exe string, exeArgs ...string) ([]string, error) {
	if ranks <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRankCount, ranks)
	}
	args := []string{l.rankFlag(), strconv.Itoa(ranks), exe}
	return append(args, exeArgs...), nil
}

// CommandLine renders the full launcher invocation as a single shell line
// for inclusion in a batch script.
func (l *Launcher) CommandLine(ranks int, exe string, exeArgs ...string) (string, error) {
	args, err := l.Args(ranks, exe, exeArgs...)
	if err != nil {
		return "", err
	}
	return strings.Join(append([]string{l.bin}, args...), " "), nil
}

// Run executes the launcher in the foreground with the given environment,
// wiring stdio through. Used by --local runs where no scheduler is involved.
func (l *Launcher) Run(ctx context.Context, ranks int, exe string, exeArgs []string, env []string) error {
	args, err := l.Args(ranks, exe, exeArgs...)
	if err != nil {
		return err
	}

	utils.PrintDebug("Executing: %s %s", l.bin, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, l.bin, args...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}
