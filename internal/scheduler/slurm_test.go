package scheduler

import (
	"regexp"
	"strings"
	"testing"
)

func newTestSlurmScheduler() *SlurmScheduler {
	return &SlurmScheduler{
		sbatchBin: "/usr/bin/sbatch",
		jobIDRe:   regexp.MustCompile(`Submitted batch job (\d+)`),
	}
}

func TestSlurmRenderScriptDirectives(t *testing.T) {
	slurm := newTestSlurmScheduler()

	job := meshJobSpec()
	job.Command = "srun -n 80 /opt/ucvm/bin/ucvm_mesh_create_mpi mesh.xml"

	var sb strings.Builder
	if err := slurm.RenderScript(&sb, job); err != nil {
		t.Fatalf("RenderScript failed: %v", err)
	}
	script := sb.String()

	for _, want := range []string{
		"#SBATCH --job-name=mesh_la_habra",
		"#SBATCH --partition=normal",
		"#SBATCH --account=SCEC0041",
		"#SBATCH --nodes=5",
		"#SBATCH --ntasks-per-node=16",
		"#SBATCH --time=04:00:00",
		"#SBATCH --mail-type=END,FAIL",
		"#SBATCH --mail-user=user@example.edu",
		"#SBATCH --output=/scratch/logs/mesh_la_habra.log",
		"srun -n 80",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q\nScript:\n%s", want, script)
		}
	}

	if strings.Contains(script, "#PBS") {
		t.Errorf("SLURM script contains PBS directives")
	}
}

func TestSlurmJobIDParse(t *testing.T) {
	slurm := newTestSlurmScheduler()

	matches := slurm.jobIDRe.FindStringSubmatch("Submitted batch job 4242\n")
	if len(matches) < 2 || matches[1] != "4242" {
		t.Errorf("jobIDRe failed to parse sbatch output: %v", matches)
	}

	if slurm.jobIDRe.MatchString("sbatch: error: invalid partition") {
		t.Errorf("jobIDRe matched an error message")
	}
}

func TestSlurmGetJobResources(t *testing.T) {
	t.Setenv("SLURM_JOB_ID", "4242")
	t.Setenv("SLURM_JOB_NUM_NODES", "5")
	t.Setenv("SLURM_NTASKS", "80")
	t.Setenv("SLURM_SUBMIT_DIR", "/scratch/run")

	slurm := newTestSlurmScheduler()
	res := slurm.GetJobResources()
	if res == nil {
		t.Fatal("expected resources inside SLURM job")
	}
	if res.JobID != "4242" {
		t.Errorf("JobID = %q", res.JobID)
	}
	if res.Nodes == nil || *res.Nodes != 5 {
		t.Errorf("Nodes = %v", res.Nodes)
	}
	if res.Ntasks == nil || *res.Ntasks != 80 {
		t.Errorf("Ntasks = %v", res.Ntasks)
	}
}
