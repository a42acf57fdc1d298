package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/meihuisu/UCVM-reallyOld/internal/config"
	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
	"github.com/spf13/cobra"
)

var configShowPath bool

// configKeys is the list of known configuration keys for shell completion
var configKeys = []string{
	"install_root",
	"models_dir",
	"plugins_dir",
	"venv_dir",
	"mesh_bin",
	"scheduler_bin",
	"launcher_bin",
	"submit_job",
	"scripts_dir",
	"logs_dir",
	"job.nodes",
	"job.ppn",
	"job.walltime",
	"job.account",
	"job.queue",
	"job.mail_user",
	"job.modules",
}

// configKeysCompletion returns config keys for shell completion
func configKeysCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return configKeys, cobra.ShellCompDirectiveNoFileComp
	}
	if len(args) == 1 {
		return configValueCompletion(args[0]), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

// configValueCompletion returns suggested values for a config key
func configValueCompletion(key string) []string {
	switch key {
	case "submit_job":
		return []string{"true", "false"}
	case "job.nodes":
		return []string{"1", "2", "5", "10", "20"}
	case "job.ppn":
		return []string{"8", "16", "32", "64"}
	case "job.walltime":
		return []string{"1h", "4h", "8h", "24h"}
	default:
		return nil
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ucvm-submit configuration",
	Long: `Manage ucvm-submit configuration settings.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (UCVM_SUBMIT_*)
  3. User config file (~/.config/ucvm-submit/config.yaml)
  4. System config file (/etc/ucvm-submit/config.yaml)
  5. Defaults derived from the UCVM installation root`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if configShowPath {
			configPath, err := config.GetUserConfigPath()
			if err != nil {
				ExitWithError("Failed to get config path: %v", err)
			}
			fmt.Println(configPath)
			return
		}

		if configFile := config.ConfigFileUsed(); configFile != "" {
			fmt.Printf("%s %s\n\n", utils.StyleTitle("Config file:"), configFile)
		} else {
			fmt.Printf("%s %s\n\n", utils.StyleTitle("Config file:"),
				utils.StyleWarning("none (defaults and auto-detection)"))
		}

		fmt.Println(utils.StyleTitle("Installation:"))
		fmt.Printf("  install_root:   %s\n", config.Global.InstallRoot)
		fmt.Printf("  models_dir:     %s\n", config.Global.ModelsDir)
		fmt.Printf("  plugins_dir:    %s\n", config.Global.PluginsDir)
		fmt.Printf("  venv_dir:       %s\n", config.Global.VenvDir)
		fmt.Printf("  mesh_bin:       %s\n", config.Global.MeshBin)
		fmt.Println()

		fmt.Println(utils.StyleTitle("Binaries:"))
		schedulerBin := config.GetString("scheduler_bin")
		if schedulerType := config.GetString("scheduler_type"); schedulerBin != "" && schedulerType != "" {
			fmt.Printf("  scheduler_bin:  %s (%s)\n", schedulerBin, schedulerType)
		} else {
			fmt.Printf("  scheduler_bin:  %s\n", schedulerBin)
		}
		fmt.Printf("  launcher_bin:   %s\n", config.GetString("launcher_bin"))
		fmt.Println()

		fmt.Println(utils.StyleTitle("Job Defaults:"))
		fmt.Printf("  nodes:          %d\n", config.GetInt("job.nodes"))
		fmt.Printf("  ppn:            %d\n", config.GetInt("job.ppn"))
		fmt.Printf("  walltime:       %s\n", config.GetString("job.walltime"))
		fmt.Printf("  account:        %s\n", config.GetString("job.account"))
		fmt.Printf("  queue:          %s\n", config.GetString("job.queue"))
		fmt.Printf("  mail_user:      %s\n", config.GetString("job.mail_user"))
		if modules := config.GetStringSlice("job.modules"); len(modules) > 0 {
			fmt.Printf("  modules:\n")
			for _, m := range modules {
				fmt.Printf("    - %s\n", m)
			}
		} else {
			fmt.Printf("  modules:        %s\n", utils.StyleInfo("none"))
		}
		fmt.Println()

		fmt.Println(utils.StyleTitle("Runtime:"))
		fmt.Printf("  submit_job:     %v\n", config.Global.SubmitJob)
		fmt.Println()

		fmt.Println(utils.StyleTitle("Environment Variable Overrides:"))
		envVars := []string{
			"UCVM_INSTALL_PATH",
			"UCVM_SUBMIT_INSTALL_ROOT",
			"UCVM_SUBMIT_MODELS_DIR",
			"UCVM_SUBMIT_PLUGINS_DIR",
			"UCVM_SUBMIT_MESH_BIN",
			"UCVM_SUBMIT_SCHEDULER_BIN",
			"UCVM_SUBMIT_LAUNCHER_BIN",
			"UCVM_SUBMIT_SUBMIT_JOB",
		}
		hasEnvOverrides := false
		for _, envVar := range envVars {
			if val := os.Getenv(envVar); val != "" {
				fmt.Printf("  %s=%s\n", envVar, val)
				hasEnvOverrides = true
			}
		}
		if !hasEnvOverrides {
			fmt.Printf("  %s\n", utils.StyleInfo("none"))
		}
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a specific configuration value.

Examples:
  ucvm-submit config get mesh_bin
  ucvm-submit config get job.nodes
  ucvm-submit config get submit_job`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: configKeysCompletion,
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := config.Get(key)
		if value == nil {
			ExitWithError("Unknown config key: %s", key)
		}
		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save it to the user config file.

Examples:
  ucvm-submit config set mesh_bin /opt/ucvm/bin/ucvm_mesh_create_mpi
  ucvm-submit config set job.nodes 10
  ucvm-submit config set job.walltime 8h
  ucvm-submit config set job.walltime 08:00:00
  ucvm-submit config set submit_job false

Walltime format (for job.walltime):
  Go style:  2h, 30m, 1h30m, 90s
  HPC style: 02:00:00, 2:30:00, 1:30 (HH:MM:SS or HH:MM)`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: configKeysCompletion,
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		knownKeys := map[string]bool{}
		for _, k := range configKeys {
			knownKeys[k] = true
		}

		// Array keys need the config file or the env var
		if key == "job.modules" {
			utils.PrintError("'%s' is an array setting. Edit the config file directly.", key)
			utils.PrintHint("Config file (YAML array):\n  job:\n    modules:\n      - python/3.9\n      - cray-hdf5")
			os.Exit(ExitCodeError)
		}

		if !knownKeys[key] {
			utils.PrintWarning("Warning: '%s' is not a standard config key", key)
		}

		if key == "job.walltime" {
			if _, err := utils.ParseDuration(value); err != nil {
				utils.PrintError("Invalid duration format: %s", value)
				utils.PrintHint("Use format like: 2h, 30m, 1h30m, or 02:00:00")
				os.Exit(ExitCodeError)
			}
		}

		config.Set(key, value)

		if err := config.SaveConfig(); err != nil {
			ExitWithError("Failed to save config: %v", err)
		}

		configPath, _ := config.GetUserConfigPath()
		utils.PrintSuccess("Set %s = %s", utils.StyleInfo(key), utils.StyleInfo(value))
		utils.PrintNote("Config saved to: %s", configPath)
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with auto-detected settings",
	Long: `Create the user configuration file with defaults and auto-detected
scheduler and launcher binaries. The installation root comes from
UCVM_INSTALL_PATH or the executable location.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			ExitWithError("Failed to get config path: %v", err)
		}

		if _, err := os.Stat(configPath); err == nil {
			utils.PrintWarning("Config file already exists: %s", configPath)
			fmt.Print("Overwrite? [y/N]: ")
			var response string
			fmt.Scanln(&response)
			if response != "y" && response != "Y" && response != "yes" {
				utils.PrintNote("Cancelled")
				return
			}
		}

		if _, err := config.AutoDetectAndSave(); err != nil {
			ExitWithError("Failed to detect binaries: %v", err)
		}
		if err := config.SaveConfig(); err != nil {
			ExitWithError("Failed to save config: %v", err)
		}

		utils.PrintSuccess("Config file created")
		fmt.Printf("  Location: %s\n", utils.StylePath(configPath))

		fmt.Println()
		fmt.Println(utils.StyleTitle("Detected settings:"))
		fmt.Printf("  Install root: %s\n", config.Global.InstallRoot)
		if schedulerBin := config.GetString("scheduler_bin"); schedulerBin != "" {
			fmt.Printf("  Scheduler:    %s (%s)\n", schedulerBin, config.GetString("scheduler_type"))
		} else {
			fmt.Printf("  Scheduler:    %s\n", utils.StyleWarning("not found"))
		}
		if launcherBin := config.GetString("launcher_bin"); launcherBin != "" {
			fmt.Printf("  Launcher:     %s\n", launcherBin)
		} else {
			fmt.Printf("  Launcher:     %s\n", utils.StyleWarning("not found"))
		}
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit config file in default editor",
	Long:  "Open the configuration file in your default text editor ($EDITOR)",
	Run: func(cmd *cobra.Command, args []string) {
		configPath, err := config.GetUserConfigPath()
		if err != nil {
			ExitWithError("Failed to get config path: %v", err)
		}

		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			utils.PrintNote("Config file doesn't exist, creating it first...")
			if err := config.SaveConfig(); err != nil {
				ExitWithError("Failed to create config: %v", err)
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		editorCmd := exec.Command(editor, configPath)
		editorCmd.Stdin = os.Stdin
		editorCmd.Stdout = os.Stdout
		editorCmd.Stderr = os.Stderr

		if err := editorCmd.Run(); err != nil {
			ExitWithError("Failed to open editor: %v", err)
		}
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all resolved settings",
	Long:  "Dump every resolved configuration key and value, one per line",
	Run: func(cmd *cobra.Command, args []string) {
		settings := config.AllSettings()
		printSettings("", settings)
	},
}

// printSettings prints a settings map recursively with dotted keys
func printSettings(prefix string, settings map[string]interface{}) {
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := settings[key].(map[string]interface{}); ok {
			printSettings(full, nested)
			continue
		}
		fmt.Printf("%s = %v\n", full, settings[key])
	}
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowPath, "path", false, "Show only the config file path")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(configCmd)
}
