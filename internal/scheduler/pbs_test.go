package scheduler

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

func newTestPbsScheduler() *PbsScheduler {
	return &PbsScheduler{
		qsubBin: "/usr/bin/qsub",
		jobIDRe: regexp.MustCompile(`^\d+(\.\S+)?$`),
	}
}

func meshJobSpec() *JobSpec {
	return &JobSpec{
		Name:       "mesh_la_habra",
		Nodes:      5,
		Ppn:        16,
		Ranks:      80,
		Walltime:   4 * time.Hour,
		Account:    "SCEC0041",
		Queue:      "normal",
		MailOnEnd:  true,
		MailOnFail: true,
		MailUser:   "user@example.edu",
		Stdout:     "/scratch/logs/mesh_la_habra.log",
		SetupLines: []string{
			"module load gcc/8.3.0",
			"export LD_LIBRARY_PATH=/opt/ucvm/model/cvms4/lib:$LD_LIBRARY_PATH",
		},
		Command: "aprun -n 80 /opt/ucvm/bin/ucvm_mesh_create_mpi mesh.xml",
		Metadata: map[string]string{
			"Mesh Config": "mesh.xml",
		},
	}
}

func TestPbsRenderScriptDirectives(t *testing.T) {
	pbs := newTestPbsScheduler()

	var sb strings.Builder
	if err := pbs.RenderScript(&sb, meshJobSpec()); err != nil {
		t.Fatalf("RenderScript failed: %v", err)
	}
	script := sb.String()

	for _, want := range []string{
		"#!/bin/bash",
		"#PBS -N mesh_la_habra",
		"#PBS -q normal",
		"#PBS -A SCEC0041",
		"#PBS -l select=5:ncpus=16:mpiprocs=16",
		"#PBS -l walltime=04:00:00",
		"#PBS -m ae",
		"#PBS -M user@example.edu",
		"#PBS -o /scratch/logs/mesh_la_habra.log",
		"#PBS -j oe",
		"cd $PBS_O_WORKDIR",
		"_format_time() { local s=$1; printf '%02d:%02d:%02d' $((s/3600)) $((s%3600/60)) $((s%60)); }",
		"module load gcc/8.3.0",
		"export LD_LIBRARY_PATH=/opt/ucvm/model/cvms4/lib:$LD_LIBRARY_PATH",
		"aprun -n 80 /opt/ucvm/bin/ucvm_mesh_create_mpi mesh.xml",
		"Mesh Config",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q\nScript:\n%s", want, script)
		}
	}

	// Environment setup must precede the launcher command
	if strings.Index(script, "module load") > strings.Index(script, "aprun -n") {
		t.Errorf("setup lines appear after the launcher command")
	}
}

func TestPbsRenderScriptRejectsBadSpec(t *testing.T) {
	pbs := newTestPbsScheduler()

	var sb strings.Builder
	job := meshJobSpec()
	job.Command = ""
	if err := pbs.RenderScript(&sb, job); err == nil {
		t.Errorf("expected error for empty command")
	}

	job = meshJobSpec()
	job.Nodes = 0
	if err := pbs.RenderScript(&sb, job); err == nil {
		t.Errorf("expected error for zero nodes")
	}
}

func TestPbsCreateScript(t *testing.T) {
	tmpDir := t.TempDir()
	pbs := newTestPbsScheduler()

	job := meshJobSpec()
	job.Name = "mesh/la_habra" // must not create a subdirectory

	scriptPath, err := pbs.CreateScript(job, tmpDir)
	if err != nil {
		t.Fatalf("CreateScript failed: %v", err)
	}

	if filepath.Base(scriptPath) != "mesh--la_habra.pbs" {
		t.Errorf("script name = %s", filepath.Base(scriptPath))
	}

	info, err := os.Stat(scriptPath)
	if err != nil {
		t.Fatalf("stat script: %v", err)
	}
	if info.Mode().Perm()&0111 == 0 {
		t.Errorf("script is not executable: %v", info.Mode())
	}

	content, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "#!/bin/bash\n") {
		t.Errorf("script missing shebang")
	}
}

func TestPbsJobIDPattern(t *testing.T) {
	pbs := newTestPbsScheduler()

	valid := []string{"12345", "12345.pbsserver", "98765.hpc.school.edu"}
	for _, id := range valid {
		if !pbs.jobIDRe.MatchString(id) {
			t.Errorf("expected %q to be a valid PBS job ID", id)
		}
	}

	invalid := []string{"", "abc", "qsub: error"}
	for _, id := range invalid {
		if pbs.jobIDRe.MatchString(id) {
			t.Errorf("expected %q to be rejected", id)
		}
	}
}

func TestPbsGetJobResources(t *testing.T) {
	t.Setenv("PBS_JOBID", "12345.pbsserver")
	t.Setenv("PBS_NUM_NODES", "5")
	t.Setenv("PBS_NP", "80")
	t.Setenv("PBS_O_WORKDIR", "/scratch/run")

	pbs := newTestPbsScheduler()
	res := pbs.GetJobResources()
	if res == nil {
		t.Fatal("expected resources inside PBS job")
	}
	if res.JobID != "12345.pbsserver" {
		t.Errorf("JobID = %q", res.JobID)
	}
	if res.Nodes == nil || *res.Nodes != 5 {
		t.Errorf("Nodes = %v", res.Nodes)
	}
	if res.Ntasks == nil || *res.Ntasks != 80 {
		t.Errorf("Ntasks = %v", res.Ntasks)
	}
	if res.WorkDir != "/scratch/run" {
		t.Errorf("WorkDir = %q", res.WorkDir)
	}
}
