package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/meihuisu/UCVM-reallyOld/internal/scheduler"
	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
	"github.com/spf13/cobra"
)

var (
	scriptFlags     JobFlags
	scriptOutPath   string
	scriptSchedName string
)

var scriptCmd = &cobra.Command{
	Use:   "script [flags] <mesh.xml>",
	Short: "Generate the batch script without submitting",
	Long: `Generate the batch script for a mesh extraction job and print it to
stdout (or write it with --script-out). Nothing is submitted.

Useful for inspecting what submit would run, or for generating scripts
on a machine without the target scheduler installed via --scheduler.`,
	Example: `  ucvm-submit script la_habra.xml                  # Print the PBS/SLURM script
  ucvm-submit script --scheduler slurm mesh.xml    # Force SLURM output
  ucvm-submit script --script-out run.pbs mesh.xml # Write to a file`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true, // Runtime errors should not show usage
	RunE:         runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
	RegisterJobFlags(scriptCmd.Flags(), &scriptFlags)
	scriptCmd.Flags().StringVar(&scriptOutPath, "script-out", "", "Write the script to a file instead of stdout")
	scriptCmd.Flags().StringVar(&scriptSchedName, "scheduler", "", "Force the scheduler format (pbs or slurm)")
}

func runScript(cmd *cobra.Command, args []string) error {
	job, err := prepareJob(args[0], &scriptFlags)
	if err != nil {
		return err
	}

	sched, err := scriptScheduler()
	if err != nil {
		return err
	}

	if scriptOutPath == "" {
		return sched.RenderScript(os.Stdout, job.Spec)
	}

	file, err := os.Create(scriptOutPath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := sched.RenderScript(writer, job.Spec); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	if err := os.Chmod(scriptOutPath, utils.PermExec); err != nil {
		return err
	}

	utils.PrintSuccess("Batch script written to %s", utils.StylePath(scriptOutPath))
	return nil
}

// scriptScheduler resolves which backend formats the script: an explicit
// --scheduler choice, then the active scheduler, then PBS as the default
// the packaged workflow targets.
func scriptScheduler() (scheduler.Scheduler, error) {
	if scriptSchedName != "" {
		switch strings.ToLower(scriptSchedName) {
		case "pbs", "torque":
			return scheduler.NewRenderer(scheduler.SchedulerPBS)
		case "slurm":
			return scheduler.NewRenderer(scheduler.SchedulerSLURM)
		default:
			ExitWithError("unknown scheduler %q (expected pbs or slurm)", scriptSchedName)
		}
	}

	if sched := scheduler.ActiveScheduler(); sched != nil {
		return sched, nil
	}
	return scheduler.NewRenderer(scheduler.SchedulerPBS)
}
