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

// PbsScheduler implements the Scheduler interface for PBS/Torque.
// This is the primary backend: the packaged mesh workflow ships as a PBS job.
type PbsScheduler struct {
	qsubBin  string
	qstatBin string
	jobIDRe  *regexp.Regexp
}

// NewPbsScheduler creates a new PBS scheduler instance using qsub from PATH
func NewPbsScheduler() (*PbsScheduler, error) {
	return newPbsSchedulerWithBinary("")
}

// NewPbsSchedulerWithBinary creates a PBS scheduler using an explicit qsub path
func NewPbsSchedulerWithBinary(qsubBin string) (*PbsScheduler, error) {
	return newPbsSchedulerWithBinary(qsubBin)
}

func newPbsSchedulerWithBinary(qsubBin string) (*PbsScheduler, error) {
	binPath := qsubBin
	if binPath == "" {
		var err error
		binPath, err = exec.LookPath("qsub")
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

	qstatCmd, _ := exec.LookPath("qstat")

	return &PbsScheduler{
		qsubBin:  binPath,
		qstatBin: qstatCmd,
		jobIDRe:  pbsJobIDRe(),
	}, nil
}

// pbsJobIDRe matches qsub output: a bare job ID like 12345.pbsserver
func pbsJobIDRe() *regexp.Regexp {
	return regexp.MustCompile(`^\d+(\.\S+)?$`)
}

// IsAvailable checks if PBS is available and we're not inside a PBS job
func (p *PbsScheduler) IsAvailable() bool {
	if p.qsubBin == "" {
		return false
	}

	// Check if we're already inside a PBS job
	_, inJob := os.LookupEnv("PBS_JOBID")
	return !inJob
}

// GetInfo returns information about the PBS scheduler
func (p *PbsScheduler) GetInfo() *SchedulerInfo {
	_, inJob := os.LookupEnv("PBS_JOBID")

	info := &SchedulerInfo{
		Type:      "PBS",
		Binary:    p.qsubBin,
		InJob:     inJob,
		Available: p.IsAvailable(),
	}

	if p.qsubBin != "" {
		if version, err := p.getPbsVersion(); err == nil {
			info.Version = version
		}
	}

	return info
}

// getPbsVersion attempts to get the PBS version
func (p *PbsScheduler) getPbsVersion() (string, error) {
	cmd := exec.Command(p.qsubBin, "--version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// RenderScript writes the PBS batch script for the job to w.
func (p *PbsScheduler) RenderScript(w io.Writer, job *JobSpec) error {
	if err := validateJobSpec(job); err != nil {
		return err
	}

	fmt.Fprintln(w, "#!/bin/bash")

	if job.Name != "" {
		fmt.Fprintf(w, "#PBS -N %s\n", job.Name)
	}
	if job.Queue != "" {
		fmt.Fprintf(w, "#PBS -q %s\n", job.Queue)
	}
	if job.Account != "" {
		fmt.Fprintf(w, "#PBS -A %s\n", job.Account)
	}

	// One chunk per node; mpiprocs places Ppn ranks on each chunk
	fmt.Fprintf(w, "#PBS -l select=%d:ncpus=%d:mpiprocs=%d\n", job.Nodes, job.Ppn, job.Ppn)

	if job.Walltime > 0 {
		fmt.Fprintf(w, "#PBS -l walltime=%s\n", utils.FormatWalltime(job.Walltime))
	}

	if job.MailOnBegin || job.MailOnEnd || job.MailOnFail {
		var mailOpts string
		if job.MailOnFail {
			mailOpts += "a"
		}
		if job.MailOnBegin {
			mailOpts += "b"
		}
		if job.MailOnEnd {
			mailOpts += "e"
		}
		fmt.Fprintf(w, "#PBS -m %s\n", mailOpts)
	}
	if job.MailUser != "" {
		fmt.Fprintf(w, "#PBS -M %s\n", job.MailUser)
	}

	if job.Stdout != "" {
		fmt.Fprintf(w, "#PBS -o %s\n", job.Stdout)
	}
	// Merge stderr into stdout; mesh runs produce one log
	fmt.Fprintln(w, "#PBS -j oe")

	fmt.Fprintln(w, "")

	// PBS starts jobs in $HOME; return to the submission directory
	fmt.Fprintln(w, "cd $PBS_O_WORKDIR")
	fmt.Fprintln(w, "")

	writeJobBanner(w, job, "$PBS_JOBID")
	writeSetupLines(w, job)

	fmt.Fprintln(w, job.Command)

	writeJobFooter(w, "$PBS_JOBID")
	return nil
}

// CreateScript generates a PBS batch script in outputDir.
func (p *PbsScheduler) CreateScript(job *JobSpec, outputDir string) (string, error) {
	if outputDir != "" {
		if err := os.MkdirAll(outputDir, utils.PermDir); err != nil {
			return "", NewScriptCreationError(job.Name, outputDir, err)
		}
	}

	scriptName := "job.pbs"
	if job.Name != "" {
		scriptName = fmt.Sprintf("%s.pbs", safeJobName(job.Name))
	}
	scriptPath := filepath.Join(outputDir, scriptName)

	file, err := os.Create(scriptPath)
	if err != nil {
		return "", NewScriptCreationError(job.Name, scriptPath, err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := p.RenderScript(writer, job); err != nil {
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

// Submit submits a PBS job with optional dependency chain
func (p *PbsScheduler) Submit(scriptPath string, dependencyJobIDs []string) (string, error) {
	args := []string{scriptPath}

	// Add dependency if provided
	if len(dependencyJobIDs) > 0 {
		depStr := strings.Join(dependencyJobIDs, ":")
		args = append([]string{"-W", fmt.Sprintf("depend=afterok:%s", depStr)}, args...)
	}

	// Execute qsub
	cmd := exec.Command(p.qsubBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", NewSubmissionError("PBS", filepath.Base(scriptPath), string(output), err)
	}

	// qsub prints the bare job ID (e.g. 12345.pbsserver)
	jobID := strings.TrimSpace(string(output))
	if jobID == "" || !p.jobIDRe.MatchString(jobID) {
		return "", fmt.Errorf("%w: %s", ErrJobIDParseFailed, string(output))
	}

	return jobID, nil
}

// GetJobResources reads allocated resources from PBS environment variables.
func (p *PbsScheduler) GetJobResources() *JobResources {
	jobID, ok := os.LookupEnv("PBS_JOBID")
	if !ok {
		return nil
	}
	res := &JobResources{
		JobID:   jobID,
		WorkDir: os.Getenv("PBS_O_WORKDIR"),
	}
	res.Nodes = getEnvInt("PBS_NUM_NODES")
	res.Ntasks = getEnvInt("PBS_NP")
	if res.Ntasks == nil {
		res.Ntasks = getEnvInt("PBS_TASKNUM")
	}
	return res
}
