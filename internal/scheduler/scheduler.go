// Package scheduler provides a unified interface over the batch schedulers
// UCVM clusters run: PBS (the packaged workflow's native scheduler) and SLURM.
package scheduler

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// SchedulerType represents the type of job scheduler
type SchedulerType string

const (
	SchedulerUnknown SchedulerType = ""
	SchedulerPBS     SchedulerType = "PBS"
	SchedulerSLURM   SchedulerType = "SLURM"
)

// SchedulerInfo holds information about the detected scheduler
type SchedulerInfo struct {
	Type      string // Scheduler type ("PBS", "SLURM")
	Binary    string // Path to submission binary (e.g., "/usr/bin/qsub")
	Version   string // Scheduler version (if available)
	InJob     bool   // Whether we're currently inside a scheduled job
	Available bool   // Whether scheduler is available for job submission
}

// JobSpec describes a mesh-extraction batch job to generate and submit.
type JobSpec struct {
	Name     string        // Job name
	Nodes    int           // Allocated nodes
	Ppn      int           // MPI processes per node
	Ranks    int           // Total MPI ranks (Nodes * Ppn)
	Walltime time.Duration // Wall clock limit
	Queue    string        // Queue / partition ("" = scheduler default)
	Account  string        // Charge account ("" = none)

	MailUser    string // Notification address ("" = submitting user)
	MailOnBegin bool
	MailOnEnd   bool
	MailOnFail  bool

	Stdout string // Combined job log path ("" = scheduler default)

	SetupLines []string          // Environment section (module loads, exports)
	Command    string            // The launcher invocation to run
	Metadata   map[string]string // Extra fields echoed in the job banner
}

// JobResources holds resource allocations for the currently running job.
// A nil field means the scheduler did not expose that resource via
// environment variables.
type JobResources struct {
	Nodes   *int   // Allocated node count
	Ntasks  *int   // Total task/rank count
	WorkDir string // Submission working directory ("" if not exposed)
	JobID   string // Scheduler job ID
}

// Scheduler defines the interface for job schedulers
type Scheduler interface {
	// IsAvailable checks if the scheduler is usable and we're not already in a job
	IsAvailable() bool

	// CreateScript generates a batch script for the job in outputDir.
	// Returns the path to the created script.
	CreateScript(job *JobSpec, outputDir string) (string, error)

	// RenderScript writes the batch script to w (used for --dry-run output)
	RenderScript(w io.Writer, job *JobSpec) error

	// Submit submits a job script with optional dependency chain.
	// Returns the job ID assigned by the scheduler.
	Submit(scriptPath string, dependencyJobIDs []string) (string, error)

	// GetInfo returns information about the scheduler
	GetInfo() *SchedulerInfo

	// GetJobResources reads allocated resources from scheduler environment
	// variables. Returns nil if not inside a job of this scheduler type.
	GetJobResources() *JobResources
}

// DetectSchedulerWithBinary attempts to initialize a scheduler using a
// preferred binary path. If preferredBin is empty, detection falls back to
// PATH lookup (PBS first: it is the scheduler the packaged workflow targets).
// The returned scheduler may be unavailable; use Init to require
// availability.
func DetectSchedulerWithBinary(preferredBin string) (Scheduler, error) {
	if preferredBin != "" {
		switch filepath.Base(preferredBin) {
		case "sbatch", "squeue", "scancel":
			return NewSlurmSchedulerWithBinary(preferredBin)
		default:
			return NewPbsSchedulerWithBinary(preferredBin)
		}
	}

	pbs, pbsErr := NewPbsScheduler()
	if pbsErr == nil {
		return pbs, nil
	}

	slurm, slurmErr := NewSlurmScheduler()
	if slurmErr == nil {
		return slurm, nil
	}

	return nil, ErrSchedulerNotFound
}

// NewRenderer returns a scheduler backend for rendering batch scripts
// on machines without the scheduler installed. Submission is not possible
// on the returned backend.
func NewRenderer(t SchedulerType) (Scheduler, error) {
	switch t {
	case SchedulerPBS:
		return &PbsScheduler{jobIDRe: pbsJobIDRe()}, nil
	case SchedulerSLURM:
		return &SlurmScheduler{jobIDRe: slurmJobIDRe()}, nil
	default:
		return nil, fmt.Errorf("%w: unknown scheduler type %q", ErrSchedulerNotFound, t)
	}
}

// DetectType returns the type of scheduler available on the system without
// initializing it.
func DetectType() SchedulerType {
	if _, err := exec.LookPath("qsub"); err == nil {
		return SchedulerPBS
	}
	if _, err := exec.LookPath("sbatch"); err == nil {
		return SchedulerSLURM
	}
	return SchedulerUnknown
}

// IsInsideJob checks if we're currently running inside a scheduler job.
// This is useful to avoid nested job submission.
func IsInsideJob() bool {
	if _, ok := os.LookupEnv("PBS_JOBID"); ok {
		return true
	}
	if _, ok := os.LookupEnv("SLURM_JOB_ID"); ok {
		return true
	}
	return false
}

// Init detects a scheduler and registers it as the active one when it can
// actually submit. If preferredBin is provided, it is used instead of PATH
// detection. Returns ErrAlreadyInJob when the scheduler exists but we are
// inside one of its jobs; the registry is cleared on any error.
func Init(preferredBin string) (SchedulerType, error) {
	sched, err := DetectSchedulerWithBinary(preferredBin)
	if err != nil {
		ClearActiveScheduler()
		return SchedulerUnknown, err
	}

	typ := SchedulerType(sched.GetInfo().Type)
	if !sched.IsAvailable() {
		ClearActiveScheduler()
		return typ, fmt.Errorf("%w: %s", ErrAlreadyInJob, typ)
	}

	SetActiveScheduler(sched)
	return typ, nil
}

// getEnvInt reads an environment variable and parses it as a positive int.
// Returns nil if unset, empty, or not a valid positive integer.
func getEnvInt(key string) *int {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}
