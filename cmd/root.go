package cmd

import (
	"fmt"
	"os"

	"github.com/meihuisu/UCVM-reallyOld/internal/config"
	"github.com/meihuisu/UCVM-reallyOld/internal/scheduler"
	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
	"github.com/spf13/cobra"
)

var (
	debugMode bool
	localMode bool
	quietMode bool
)

var rootCmd = &cobra.Command{
	Use:           "ucvm-submit",
	Short:         "Validate, stage, and submit UCVM mesh-extraction jobs on HPC clusters.",
	Version:       config.VERSION,
	SilenceErrors: true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		exe, err := os.Executable()
		if err != nil {
			utils.PrintError("Failed to determine executable path: %v", err)
			os.Exit(1)
		}

		// Step 1: Load defaults (installation layout, job geometry)
		config.LoadDefaults(exe)

		// Step 2: Initialize Viper (read config file, env vars)
		if err := config.InitViper(); err != nil {
			utils.PrintDebug("Error reading config file: %v", err)
		}

		// Step 3: Auto-detect scheduler/launcher binaries and save to config
		updated, err := config.AutoDetectAndSave()
		if err != nil {
			utils.PrintDebug("Failed to save config: %v", err)
		} else if updated {
			if configPath, err := config.GetUserConfigPath(); err == nil {
				utils.PrintDebug("Auto-detected binaries saved to: %s", configPath)
			}
		}

		// Step 4: Load detected values from Viper into Global config
		config.LoadFromViper()

		// Step 5: Apply command-line flags (highest priority)
		if quietMode {
			utils.QuietMode = true
		}
		if debugMode {
			utils.DebugMode = true
			config.Global.Debug = true
			utils.PrintDebug("Debug mode enabled")
			utils.PrintDebug("ucvm-submit Version: %s", utils.StyleInfo(config.VERSION))
			utils.PrintDebug("Executable: %s", exe)
			utils.PrintDebug("Install Root: %s", config.Global.InstallRoot)
			utils.PrintDebug("Models Dir: %s", config.Global.ModelsDir)
			utils.PrintDebug("Plugins Dir: %s", config.Global.PluginsDir)
			utils.PrintDebug("Mesh Binary: %s", config.Global.MeshBin)
			if config.Global.SchedulerBin != "" {
				utils.PrintDebug("Scheduler Binary: %s", config.Global.SchedulerBin)
			}
			if config.Global.LauncherBin != "" {
				utils.PrintDebug("Launcher Binary: %s", config.Global.LauncherBin)
			}
		}

		if localMode {
			config.Global.SubmitJob = false
			utils.PrintDebug("Local mode enabled (job submission disabled)")
		}

		// Step 6: Initialize scheduler if job submission is enabled
		if config.Global.SubmitJob && config.Global.SchedulerBin != "" {
			typ, err := scheduler.Init(config.Global.SchedulerBin)
			if err != nil {
				utils.PrintDebug("Scheduler not available: %v", err)
			} else {
				utils.PrintDebug("%s scheduler initialized and available", typ)
			}
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Subcommands are attached to rootCmd in their respective init() functions
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	rootCmd.PersistentFlags().BoolVar(&localMode, "local", false, "Disable job submission (run the launcher directly)")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress informational output")
}
