package cmd

import (
	"fmt"

	"github.com/meihuisu/UCVM-reallyOld/internal/config"
	"github.com/meihuisu/UCVM-reallyOld/internal/scheduler"
	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Display scheduler information",
	Long: `Display information about the detected job scheduler.

Shows scheduler type (PBS or SLURM), binary path, version, availability,
and the resources of the current allocation when run inside a job.`,
	Args: cobra.NoArgs,
	Run:  runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) {
	sched, err := scheduler.DetectSchedulerWithBinary(config.Global.SchedulerBin)

	if err != nil {
		if scheduler.IsInsideJob() {
			utils.PrintMessage("Scheduler Status: %s", utils.StyleWarning("Unavailable (inside job)"))
			printJobResources()
			return
		}

		utils.PrintMessage("Scheduler Status: %s", utils.StyleError("Not Found"))
		utils.PrintMessage("")
		utils.PrintMessage("No job scheduler detected on this system.")
		utils.PrintMessage("Supported schedulers: PBS, SLURM")
		utils.PrintHint("Jobs will run locally via the MPI launcher (%s)", utils.StyleCommand("ucvm-submit submit --local"))
		return
	}

	info := sched.GetInfo()

	fmt.Println("Scheduler Information:")
	fmt.Printf("  Type:      %s\n", utils.StyleInfo(info.Type))
	fmt.Printf("  Binary:    %s\n", utils.StylePath(info.Binary))

	if info.Version != "" {
		fmt.Printf("  Version:   %s\n", utils.StyleNumber(info.Version))
	}

	switch {
	case info.InJob:
		fmt.Printf("  Status:    %s (inside job)\n", utils.StyleError("Unavailable"))
		fmt.Println()
		fmt.Println("Job submission is disabled to prevent nested job submissions.")
		if res := sched.GetJobResources(); res != nil {
			fmt.Println()
			fmt.Println("Current Allocation:")
			fmt.Printf("  Job ID:    %s\n", utils.StyleNumber(res.JobID))
			if res.Nodes != nil {
				fmt.Printf("  Nodes:     %s\n", utils.StyleNumber(*res.Nodes))
			}
			if res.Ntasks != nil {
				fmt.Printf("  Tasks:     %s\n", utils.StyleNumber(*res.Ntasks))
			}
			if res.WorkDir != "" {
				fmt.Printf("  Work dir:  %s\n", utils.StylePath(res.WorkDir))
			}
		}
	case info.Available:
		fmt.Printf("  Status:    %s\n", utils.StyleSuccess("Available"))
		fmt.Println()
		fmt.Println("The scheduler is available and ready for job submission.")
	default:
		fmt.Printf("  Status:    %s\n", utils.StyleError("Unavailable"))
		fmt.Println()
		fmt.Println("Scheduler detected but not available for job submission.")
	}
}

// printJobResources reports the current allocation when the scheduler
// binary itself is not reachable (common on compute nodes).
func printJobResources() {
	for _, ctor := range []func() (scheduler.Scheduler, error){
		func() (scheduler.Scheduler, error) { return scheduler.NewRenderer(scheduler.SchedulerPBS) },
		func() (scheduler.Scheduler, error) { return scheduler.NewRenderer(scheduler.SchedulerSLURM) },
	} {
		sched, err := ctor()
		if err != nil {
			continue
		}
		res := sched.GetJobResources()
		if res == nil {
			continue
		}
		fmt.Println()
		fmt.Println("Current Allocation:")
		fmt.Printf("  Job ID:    %s\n", utils.StyleNumber(res.JobID))
		if res.Nodes != nil {
			fmt.Printf("  Nodes:     %s\n", utils.StyleNumber(*res.Nodes))
		}
		if res.Ntasks != nil {
			fmt.Printf("  Tasks:     %s\n", utils.StyleNumber(*res.Ntasks))
		}
		if res.WorkDir != "" {
			fmt.Printf("  Work dir:  %s\n", utils.StylePath(res.WorkDir))
		}
		return
	}
}
