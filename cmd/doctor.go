package cmd

import (
	"os"

	"github.com/meihuisu/UCVM-reallyOld/internal/config"
	"github.com/meihuisu/UCVM-reallyOld/internal/launcher"
	"github.com/meihuisu/UCVM-reallyOld/internal/runenv"
	"github.com/meihuisu/UCVM-reallyOld/internal/scheduler"
	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the UCVM installation and submission environment",
	Long: `Run diagnostic checks against the UCVM installation: directories,
the mesh executable, the Python virtualenv, the MPI launcher, and the
batch scheduler. Each check reports pass, warn, or fail.`,
	Args: cobra.NoArgs,
	Run:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) {
	failures := 0
	warnings := 0

	fail := func(format string, a ...interface{}) {
		utils.PrintError(format, a...)
		failures++
	}
	warn := func(format string, a ...interface{}) {
		utils.PrintWarning(format, a...)
		warnings++
	}

	// Installation layout
	if utils.DirExists(config.Global.InstallRoot) {
		utils.PrintSuccess("Install root: %s", utils.StylePath(config.Global.InstallRoot))
	} else {
		fail("Install root %s does not exist (set UCVM_INSTALL_PATH)", config.Global.InstallRoot)
	}

	if utils.DirExists(config.Global.ModelsDir) {
		dirs, err := runenv.ScanLibDirs(config.Global.ModelsDir)
		if err != nil {
			warn("Cannot scan models directory %s: %v", config.Global.ModelsDir, err)
		} else if len(dirs) == 0 {
			warn("Models directory %s has no installed models with lib/", config.Global.ModelsDir)
		} else {
			utils.PrintSuccess("Models: %s entries under %s", utils.StyleNumber(len(dirs)), utils.StylePath(config.Global.ModelsDir))
		}
	} else {
		fail("Models directory %s does not exist", config.Global.ModelsDir)
	}

	if utils.DirExists(config.Global.PluginsDir) {
		utils.PrintSuccess("Plugins: %s", utils.StylePath(config.Global.PluginsDir))
	} else {
		warn("Plugins directory %s does not exist", config.Global.PluginsDir)
	}

	// Mesh executable
	switch {
	case !utils.FileExists(config.Global.MeshBin):
		fail("Mesh executable %s not found", config.Global.MeshBin)
	case !utils.IsExecutable(config.Global.MeshBin):
		fail("Mesh executable %s is not executable", config.Global.MeshBin)
	default:
		utils.PrintSuccess("Mesh executable: %s", utils.StylePath(config.Global.MeshBin))
	}

	// Python virtualenv
	if runenv.VenvExists(config.Global.VenvDir) {
		utils.PrintSuccess("Python venv: %s", utils.StylePath(config.Global.VenvDir))
	} else if config.Global.VenvDir != "" {
		warn("Python venv not found at %s (jobs run without it)", config.Global.VenvDir)
	}

	// MPI launcher
	if lnch, err := launcher.New(config.Global.LauncherBin); err != nil {
		fail("MPI launcher: %v", err)
	} else {
		_, version, verr := lnch.Version()
		switch {
		case verr != nil:
			utils.PrintSuccess("MPI launcher: %s (%s)", utils.StylePath(lnch.Bin()), lnch.Type())
			warn("Cannot determine %s version: %v", lnch.Type(), verr)
		case !lnch.MeetsMinimum(version):
			fail("%s %s is below the minimum supported version %s", lnch.Type(), version, lnch.MinimumVersion())
		default:
			utils.PrintSuccess("MPI launcher: %s %s", utils.StylePath(lnch.Bin()), version)
		}
	}

	// Scheduler
	if sched := scheduler.ActiveScheduler(); sched != nil {
		info := sched.GetInfo()
		if info.Version != "" {
			utils.PrintSuccess("Scheduler: %s %s (%s)", info.Type, info.Version, utils.StylePath(info.Binary))
		} else {
			utils.PrintSuccess("Scheduler: %s (%s)", info.Type, utils.StylePath(info.Binary))
		}
		if info.InJob {
			warn("Currently inside a %s job; nested submission is disabled", info.Type)
		}
	} else if scheduler.IsInsideJob() {
		warn("Inside a scheduler job; submission is disabled")
	} else if typ := scheduler.DetectType(); typ != scheduler.SchedulerUnknown {
		warn("%s is installed but not initialized; set scheduler_bin and submit_job in the config", typ)
	} else {
		warn("No scheduler found; jobs will run locally via the MPI launcher")
	}

	if configFile := config.ConfigFileUsed(); configFile != "" {
		utils.PrintMessage("Config file: %s", utils.StylePath(configFile))
	}

	switch {
	case failures > 0:
		utils.PrintError("%d check(s) failed, %d warning(s)", failures, warnings)
		os.Exit(ExitCodeError)
	case warnings > 0:
		utils.PrintMessage("All checks passed with %d warning(s)", warnings)
	default:
		utils.PrintSuccess("All checks passed")
	}
}
