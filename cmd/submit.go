package cmd

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/meihuisu/UCVM-reallyOld/internal/config"
	"github.com/meihuisu/UCVM-reallyOld/internal/scheduler"
	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
	"github.com/spf13/cobra"
)

var (
	submitFlags   JobFlags
	submitAfterOK string
	submitDryRun  bool
)

// jobIDRe matches a single scheduler job ID.
// SLURM: pure digits. PBS: digits followed by .hostname (e.g. 12345.school.edu).
var jobIDRe = regexp.MustCompile(`^\d+(\.\S+)?$`)

var submitCmd = &cobra.Command{
	Use:   "submit [flags] <mesh.xml>",
	Short: "Validate a mesh config and submit the extraction job",
	Long: `Validate a UCVM mesh configuration, assemble the runtime environment,
generate a batch script, and submit it to the detected scheduler.

The runtime environment is derived from the UCVM installation: every
model and plugin directory that carries a lib/ subdirectory is prepended
to LD_LIBRARY_PATH, the bundled Python virtualenv is activated, and any
configured environment modules are loaded.

With --local (or when no scheduler is available) the MPI launcher is
executed directly instead of going through the scheduler.`,
	Example: `  ucvm-submit submit la_habra.xml                  # Validate and submit
  ucvm-submit submit --nodes 10 --ppn 8 mesh.xml   # Override rank layout
  ucvm-submit submit -t 8h -A SCEC0041 mesh.xml    # Override walltime and account
  ucvm-submit submit --dry-run mesh.xml            # Show the script, submit nothing

  # Dependency chaining example
  JOB=$(ucvm-submit -q submit stage1.xml)
  ucvm-submit submit --afterok "$JOB" stage2.xml`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true, // Runtime errors should not show usage
	RunE:         runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	RegisterJobFlags(submitCmd.Flags(), &submitFlags)
	submitCmd.Flags().StringVar(&submitAfterOK, "afterok", "", "Depend on job IDs (colon-separated, e.g. 123:456)")
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "Preview the batch script without submitting")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("afterok") {
		if submitAfterOK == "" {
			ExitWithError("--afterok is empty; the upstream job may have failed to submit or run locally")
		}
		for _, id := range strings.Split(submitAfterOK, ":") {
			if id = strings.TrimSpace(id); !jobIDRe.MatchString(id) {
				ExitWithError("--afterok %q is not a valid job ID", id)
			}
		}
	}

	if problems := preflight(); len(problems) > 0 {
		for _, p := range problems {
			utils.PrintError("%s", p)
		}
		utils.PrintHint("Run %s for a full installation check", utils.StyleCommand("ucvm-submit doctor"))
		os.Exit(ExitCodeError)
	}

	job, err := prepareJob(args[0], &submitFlags)
	if err != nil {
		return err
	}

	points, _ := job.Config.TotalPoints()
	utils.PrintMessage("Mesh %s: %s grid points, %d ranks on %d nodes",
		utils.StyleName(job.Config.MeshName), utils.StyleNumber(points),
		job.Geometry.Ranks, job.Geometry.Nodes)

	sched := scheduler.ActiveScheduler()

	if submitDryRun {
		if sched == nil {
			utils.PrintMessage("No scheduler active; local run would execute:")
			fmt.Println(job.Spec.Command)
			return nil
		}
		return sched.RenderScript(os.Stdout, job.Spec)
	}

	// Local path: no scheduler, or submission disabled via --local
	if sched == nil {
		if config.Global.SubmitJob {
			utils.PrintNote("No scheduler available; running locally via %s", utils.StyleCommand(job.Launcher.Bin()))
		}
		return runLocal(cmd.Context(), job)
	}

	var depIDs []string
	if submitAfterOK != "" {
		depIDs = strings.Split(submitAfterOK, ":")
	}

	scriptPath, err := sched.CreateScript(job.Spec, config.Global.ScriptsDir)
	if err != nil {
		return err
	}
	utils.PrintDebug("Batch script created at %s", scriptPath)

	jobID, err := sched.Submit(scriptPath, depIDs)
	if err != nil {
		if scheduler.IsSubmissionError(err) {
			utils.PrintHint("Check the queue and account settings; the script is kept at %s", utils.StylePath(scriptPath))
		}
		return err
	}

	utils.PrintSuccess("Submitted job %s with ID %s", utils.StyleName(job.Spec.Name), utils.StyleNumber(jobID))
	if len(depIDs) > 0 {
		utils.PrintMessage("Depends on: %s", strings.Join(depIDs, ", "))
	}
	if job.Spec.Stdout != "" {
		utils.PrintMessage("Job log: %s", utils.StylePath(job.Spec.Stdout))
	}
	if utils.IsInteractiveShell() {
		utils.PrintHint("Chain a dependent job with %s", utils.StyleCommand("ucvm-submit submit --afterok "+jobID+" <next.xml>"))
	}

	// Print the bare job ID on stdout for shell capture
	fmt.Println(jobID)
	os.Exit(ExitCodeJobSubmitted)
	return nil
}

// runLocal executes the mesh extraction in the foreground with the
// assembled environment.
func runLocal(ctx context.Context, job *preparedJob) error {
	if ctx == nil {
		ctx = context.Background()
	}

	configPath := job.Spec.Metadata["Mesh Config"]
	utils.PrintMessage("Running %s with %d ranks", utils.StylePath(config.Global.MeshBin), job.Geometry.Ranks)

	return job.Launcher.Run(ctx, job.Geometry.Ranks, config.Global.MeshBin,
		[]string{configPath}, job.Env.EnvList)
}
