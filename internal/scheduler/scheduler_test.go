package scheduler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearJobEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PBS_JOBID", "SLURM_JOB_ID"} {
		if val, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, val) })
		}
	}
}

func TestIsInsideJob(t *testing.T) {
	clearJobEnv(t)

	if IsInsideJob() {
		t.Errorf("IsInsideJob = true with no scheduler env")
	}

	t.Setenv("PBS_JOBID", "123.server")
	if !IsInsideJob() {
		t.Errorf("IsInsideJob = false with PBS_JOBID set")
	}
}

func TestPbsUnavailableInsideJob(t *testing.T) {
	t.Setenv("PBS_JOBID", "123.server")

	pbs := newTestPbsScheduler()
	if pbs.IsAvailable() {
		t.Errorf("PBS should be unavailable inside a PBS job")
	}

	info := pbs.GetInfo()
	if !info.InJob || info.Available {
		t.Errorf("GetInfo = %+v; want InJob=true Available=false", info)
	}
}

func TestActiveSchedulerRegistry(t *testing.T) {
	defer ClearActiveScheduler()

	if ActiveScheduler() != nil {
		ClearActiveScheduler()
	}

	pbs := newTestPbsScheduler()
	SetActiveScheduler(pbs)
	if ActiveScheduler() != pbs {
		t.Errorf("ActiveScheduler did not return the configured instance")
	}

	ClearActiveScheduler()
	if ActiveScheduler() != nil {
		t.Errorf("ClearActiveScheduler did not reset")
	}
}

func TestInitRegistersAvailableScheduler(t *testing.T) {
	clearJobEnv(t)
	defer ClearActiveScheduler()

	qsub := filepath.Join(t.TempDir(), "qsub")
	if err := os.WriteFile(qsub, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	typ, err := Init(qsub)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if typ != SchedulerPBS {
		t.Errorf("type = %q, want PBS", typ)
	}
	if ActiveScheduler() == nil {
		t.Errorf("Init did not register the scheduler")
	}
}

func TestInitRefusesNestedSubmission(t *testing.T) {
	defer ClearActiveScheduler()

	qsub := filepath.Join(t.TempDir(), "qsub")
	if err := os.WriteFile(qsub, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PBS_JOBID", "123.server")

	if _, err := Init(qsub); !errors.Is(err, ErrAlreadyInJob) {
		t.Errorf("err = %v, want ErrAlreadyInJob", err)
	}
	if ActiveScheduler() != nil {
		t.Errorf("registry should be cleared when inside a job")
	}
}

func TestDetectSchedulerWithBinaryInference(t *testing.T) {
	tmp := t.TempDir()

	writeBin := func(name string) string {
		path := tmp + "/" + name
		if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatal(err)
		}
		return path
	}

	sched, err := DetectSchedulerWithBinary(writeBin("sbatch"))
	if err != nil {
		t.Fatalf("sbatch path: %v", err)
	}
	if _, ok := sched.(*SlurmScheduler); !ok {
		t.Errorf("expected SlurmScheduler for sbatch binary, got %T", sched)
	}

	sched, err = DetectSchedulerWithBinary(writeBin("qsub"))
	if err != nil {
		t.Fatalf("qsub path: %v", err)
	}
	if _, ok := sched.(*PbsScheduler); !ok {
		t.Errorf("expected PbsScheduler for qsub binary, got %T", sched)
	}
}
