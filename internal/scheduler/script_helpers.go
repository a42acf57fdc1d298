package scheduler

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
)

// validateJobSpec rejects specs that cannot be rendered into a script.
func validateJobSpec(job *JobSpec) error {
	if job == nil {
		return fmt.Errorf("%w: nil spec", ErrInvalidJobSpec)
	}
	if job.Command == "" {
		return fmt.Errorf("%w: empty command", ErrInvalidJobSpec)
	}
	if job.Nodes <= 0 || job.Ppn <= 0 {
		return fmt.Errorf("%w: %d nodes x %d ppn", ErrInvalidJobSpec, job.Nodes, job.Ppn)
	}
	return nil
}

// safeJobName replaces path separators so a job name never creates
// subdirectories when used in a file name.
func safeJobName(name string) string {
	return strings.ReplaceAll(name, "/", "--")
}

// writeJobBanner emits the echo block that stamps the job log with its
// identity and resources. jobIDVar is the scheduler's job ID variable
// (e.g. "$PBS_JOBID").
func writeJobBanner(w io.Writer, job *JobSpec, jobIDVar string) {
	fmt.Fprintln(w, "# Print job information")
	fmt.Fprintln(w, "_START_TIME=$SECONDS")
	fmt.Fprintf(w, "%s\n", "_format_time() { local s=$1; printf '%02d:%02d:%02d' $((s/3600)) $((s%3600/60)) $((s%60)); }")
	fmt.Fprintln(w, "echo \"========================================\"")
	fmt.Fprintf(w, "echo \"Job ID:    %s\"\n", jobIDVar)
	fmt.Fprintf(w, "echo \"Job Name:  %s\"\n", job.Name)
	fmt.Fprintf(w, "echo \"Nodes:     %d\"\n", job.Nodes)
	fmt.Fprintf(w, "echo \"Ranks:     %d (%d per node)\"\n", job.Ranks, job.Ppn)
	if job.Walltime > 0 {
		fmt.Fprintf(w, "echo \"Walltime:  %s\"\n", utils.FormatWalltime(job.Walltime))
	}
	fmt.Fprintln(w, "echo \"PWD:       $(pwd)\"")
	if len(job.Metadata) > 0 {
		keys := make([]string, 0, len(job.Metadata))
		maxLen := 0
		for key := range job.Metadata {
			keys = append(keys, key)
			if len(key) > maxLen {
				maxLen = len(key)
			}
		}
		sort.Strings(keys)
		for _, key := range keys {
			if value := job.Metadata[key]; value != "" {
				padding := maxLen - len(key)
				fmt.Fprintf(w, "echo \"%s:%s %s\"\n", key, strings.Repeat(" ", padding+3), value)
			}
		}
	}
	fmt.Fprintf(w, "%s\n", "echo \"Started:   $(date '+%Y-%m-%d %T')\"")
	fmt.Fprintln(w, "echo \"========================================\"")
	fmt.Fprintln(w, "")
}

// writeJobFooter emits the completion block with elapsed time.
func writeJobFooter(w io.Writer, jobIDVar string) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "echo \"========================================\"")
	fmt.Fprintf(w, "echo \"Job ID:    %s\"\n", jobIDVar)
	fmt.Fprintln(w, "echo \"Elapsed:   $(_format_time $(($SECONDS - $_START_TIME)))\"")
	fmt.Fprintf(w, "%s\n", "echo \"Completed: $(date '+%Y-%m-%d %T')\"")
	fmt.Fprintln(w, "echo \"========================================\"")
}

// writeSetupLines emits the environment section (module loads, venv
// activation, exports) with a blank line after it when non-empty.
func writeSetupLines(w io.Writer, job *JobSpec) {
	if len(job.SetupLines) == 0 {
		return
	}
	for _, line := range job.SetupLines {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, "")
}
