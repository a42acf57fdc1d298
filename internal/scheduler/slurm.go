package scheduler

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
)

// SlurmScheduler implements the Scheduler interface for SLURM.
// Kept alongside PBS because most UCVM clusters have since migrated.
type SlurmScheduler struct {
	sbatchBin string
	jobIDRe   *regexp.Regexp
}

// NewSlurmScheduler creates a new SLURM scheduler instance using sbatch from PATH
func NewSlurmScheduler() (*SlurmScheduler, error) {
	return newSlurmSchedulerWithBinary("")
}

// NewSlurmSchedulerWithBinary creates a SLURM scheduler using an explicit sbatch path
func NewSlurmSchedulerWithBinary(sbatchBin string) (*SlurmScheduler, error) {
	return newSlurmSchedulerWithBinary(sbatchBin)
}

func newSlurmSchedulerWithBinary(sbatchBin string) (*SlurmScheduler, error) {
	binPath := sbatchBin
	if binPath == "" {
		var err error
		binPath, err = exec.LookPath("sbatch")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
	} else {
		if absPath, err := filepath.Abs(binPath); err == nil {
			binPath = absPath
		}
		info, err := os.Stat(binPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSchedulerNotFound, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", ErrSchedulerNotFound, binPath)
		}
	}

	return &SlurmScheduler{
		sbatchBin: binPath,
		jobIDRe:   slurmJobIDRe(),
	}, nil
}

// slurmJobIDRe extracts the job ID from sbatch's confirmation line
func slurmJobIDRe() *regexp.Regexp {
	return regexp.MustCompile(`Submitted batch job (\d+)`)
}

// IsAvailable checks if SLURM is available and we're not inside a SLURM job
func (s *SlurmScheduler) IsAvailable() bool {
	if s.sbatchBin == "" {
		return false
	}

	_, inJob := os.LookupEnv("SLURM_JOB_ID")
	return !inJob
}

// GetInfo returns information about the SLURM scheduler
func (s *SlurmScheduler) GetInfo() *SchedulerInfo {
	_, inJob := os.LookupEnv("SLURM_JOB_ID")

	info := &SchedulerInfo{
		Type:      "SLURM",
		Binary:    s.sbatchBin,
		InJob:     inJob,
		Available: s.IsAvailable(),
	}

	if s.sbatchBin != "" {
		if version, err := s.getSlurmVersion(); err == nil {
			info.Version = version
		}
	}

	return info
}

// getSlurmVersion attempts to get the SLURM version
func (s *SlurmScheduler) getSlurmVersion() (string, error) {
	cmd := exec.Command(s.sbatchBin, "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// RenderScript writes the SLURM batch script for the job to w.
func (s *SlurmScheduler) RenderScript(w io.Writer, job *JobSpec) error {
	if err := validateJobSpec(job); err != nil {
		return err
	}

	fmt.Fprintln(w, "#!/bin/bash")

	if job.Name != "" {
		fmt.Fprintf(w, "#SBATCH --job-name=%s\n", job.Name)
	}
	if job.Queue != "" {
		fmt.Fprintf(w, "#SBATCH --partition=%s\n", job.Queue)
	}
	if job.Account != "" {
		fmt.Fprintf(w, "#SBATCH --account=%s\n", job.Account)
	}

	fmt.Fprintf(w, "#SBATCH --nodes=%d\n", job.Nodes)
	fmt.Fprintf(w, "#SBATCH --ntasks-per-node=%d\n", job.Ppn)

	if job.Walltime > 0 {
		fmt.Fprintf(w, "#SBATCH --time=%s\n", utils.FormatWalltime(job.Walltime))
	}

	if job.MailOnBegin || job.MailOnEnd || job.MailOnFail {
		var events []string
		if job.MailOnBegin {
			events = append(events, "BEGIN")
		}
		if job.MailOnEnd {
			events = append(events, "END")
		}
		if job.MailOnFail {
			events = append(events, "FAIL")
		}
		fmt.Fprintf(w, "#SBATCH --mail-type=%s\n", strings.Join(events, ","))
	}
	if job.MailUser != "" {
		fmt.Fprintf(w, "#SBATCH --mail-user=%s\n", job.MailUser)
	}

	if job.Stdout != "" {
		// sbatch merges stderr into stdout when only --output is given
		fmt.Fprintf(w, "#SBATCH --output=%s\n", job.Stdout)
	}

	fmt.Fprintln(w, "")

	writeJobBanner(w, job, "$SLURM_JOB_ID")
	writeSetupLines(w, job)

	fmt.Fprintln(w, job.Command)

	writeJobFooter(w, "$SLURM_JOB_ID")
	return nil
}

// CreateScript generates a SLURM batch script in outputDir.
func (s *SlurmScheduler) CreateScript(job *JobSpec, outputDir string) (string, error) {
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, utils.PermDir); err != nil {
			return "", NewScriptCreationError(job.Name, outputDir, err)
		}
	}

	scriptName := "job.sbatch"
	if job.Name != "" {
		scriptName = fmt.Sprintf("%s.sbatch", safeJobName(job.Name))
	}
	scriptPath := filepath.Join(outputDir, scriptName)

	file, err := os.Create(scriptPath)
	if err != nil {
		return "", NewScriptCreationError(job.Name, scriptPath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := s.RenderScript(writer, job); err != nil {
		return "", NewScriptCreationError(job.Name, scriptPath, err)
	}
	if err := writer.Flush(); err != nil {
		return "", NewScriptCreationError(job.Name, scriptPath, err)
	}

	if err := os.Chmod(scriptPath, utils.PermExec); err != nil {
		return "", NewScriptCreationError(job.Name, scriptPath, err)
	}

	return scriptPath, nil
}

// Submit submits a SLURM job with optional dependency chain
func (s *SlurmScheduler) Submit(scriptPath string, dependencyJobIDs []string) (string, error) {
	args := []string{scriptPath}

	// Add dependency if provided (afterok takes colon-separated IDs)
	if len(dependencyJobIDs) > 0 {
		depStr := strings.Join(dependencyJobIDs, ":")
		args = append([]string{fmt.Sprintf("--dependency=afterok:%s", depStr)}, args...)
	}

	// Execute sbatch
	cmd := exec.Command(s.sbatchBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", NewSubmissionError("SLURM", filepath.Base(scriptPath), string(output), err)
	}

	// Parse job ID from "Submitted batch job NNNN"
	matches := s.jobIDRe.FindStringSubmatch(string(output))
	if len(matches) < 2 {
		return "", fmt.Errorf("%w: %s", ErrJobIDParseFailed, string(output))
	}

	return matches[1], nil
}

// GetJobResources reads allocated resources from SLURM environment variables.
func (s *SlurmScheduler) GetJobResources() *JobResources {
	jobID, ok := os.LookupEnv("SLURM_JOB_ID")
	if !ok {
		return nil
	}
	res := &JobResources{
		JobID:   jobID,
		WorkDir: os.Getenv("SLURM_SUBMIT_DIR"),
	}
	res.Nodes = getEnvInt("SLURM_JOB_NUM_NODES")
	res.Ntasks = getEnvInt("SLURM_NTASKS")
	return res
}
