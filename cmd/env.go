package cmd

import (
	"fmt"

	"github.com/meihuisu/UCVM-reallyOld/internal/config"
	"github.com/meihuisu/UCVM-reallyOld/internal/runenv"
	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
	"github.com/spf13/cobra"
)

var (
	envExport      bool
	envExtra       []string
	envModules     []string
	envModulePurge bool
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show the runtime environment a job would run with",
	Long: `Assemble and display the runtime environment for mesh extraction:
the LD_LIBRARY_PATH built from model and plugin lib/ directories, the
Python virtualenv, and any configured environment modules.

With --export the output is shell code suitable for eval, so the same
environment can be reproduced in an interactive session:

  eval "$(ucvm-submit -q env --export)"`,
	Args: cobra.NoArgs,
	Run:  runEnv,
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolVar(&envExport, "export", false, "Print eval-able shell code instead of a summary")
	envCmd.Flags().StringArrayVar(&envExtra, "env", nil, "Set environment variable KEY=VALUE (repeatable)")
	envCmd.Flags().StringArrayVar(&envModules, "module", nil, "Environment module to load (repeatable)")
	envCmd.Flags().BoolVar(&envModulePurge, "module-purge", false, "Run 'module purge' before module loads")
}

func runEnv(cmd *cobra.Command, args []string) {
	modules := config.Global.Modules
	if len(envModules) > 0 {
		modules = envModules
	}

	env := runenv.Assemble(runenv.Options{
		InstallRoot: config.Global.InstallRoot,
		ModelsDir:   config.Global.ModelsDir,
		PluginsDir:  config.Global.PluginsDir,
		VenvDir:     config.Global.VenvDir,
		Modules:     modules,
		ModulePurge: envModulePurge,
		Extra:       envExtra,
	})

	if envExport {
		for _, line := range env.ScriptLines {
			fmt.Println(line)
		}
		return
	}

	fmt.Printf("%s %s\n", utils.StyleTitle("Install root:"), config.Global.InstallRoot)
	fmt.Printf("%s %s\n", utils.StyleTitle("Models:"), config.Global.ModelsDir)
	fmt.Printf("%s %s\n", utils.StyleTitle("Plugins:"), config.Global.PluginsDir)

	fmt.Printf("\n%s\n", utils.StyleTitle("Library directories:"))
	if len(env.LibDirs) == 0 {
		fmt.Println("  (none found)")
	}
	for _, dir := range env.LibDirs {
		fmt.Printf("  %s\n", utils.StylePath(dir))
	}

	fmt.Printf("\n%s\n  %s\n", utils.StyleTitle("LD_LIBRARY_PATH:"), env.LibraryPath)

	fmt.Printf("\n%s ", utils.StyleTitle("Python venv:"))
	if runenv.VenvExists(config.Global.VenvDir) {
		fmt.Printf("%s\n", utils.StylePath(config.Global.VenvDir))
	} else {
		fmt.Println("not found")
	}

	if len(modules) > 0 {
		fmt.Printf("\n%s %v\n", utils.StyleTitle("Modules:"), modules)
	}
}
