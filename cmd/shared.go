package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meihuisu/UCVM-reallyOld/internal/config"
	"github.com/meihuisu/UCVM-reallyOld/internal/launcher"
	"github.com/meihuisu/UCVM-reallyOld/internal/mesh"
	"github.com/meihuisu/UCVM-reallyOld/internal/runenv"
	"github.com/meihuisu/UCVM-reallyOld/internal/scheduler"
	"github.com/meihuisu/UCVM-reallyOld/internal/utils"
	"github.com/spf13/pflag"
)

// Exit codes used by various commands
const (
	// Generic error code
	ExitCodeError = 1
	// Returned when the job was handed to a scheduler (mesh will be built asynchronously)
	ExitCodeJobSubmitted = 3
)

// ExitWithError prints an error and exits with ExitCodeError
func ExitWithError(format string, a ...interface{}) {
	utils.PrintError(format, a...)
	os.Exit(ExitCodeError)
}

// JobFlags holds the job-shaping flags shared by submit and script
type JobFlags struct {
	Name        string
	Nodes       int
	Ppn         int
	Time        string
	Queue       string
	Account     string
	Mail        string
	Stdout      string
	EnvSettings []string
	Modules     []string
	ModulePurge bool
}

// RegisterJobFlags registers the shared job-shaping flags on a flag set
func RegisterJobFlags(fs *pflag.FlagSet, flags *JobFlags) {
	fs.StringVarP(&flags.Name, "name", "n", "", "Override job name (default: mesh_<mesh_name>)")
	fs.IntVar(&flags.Nodes, "nodes", 0, "Override node count")
	fs.IntVar(&flags.Ppn, "ppn", 0, "Override MPI processes per node")
	fs.StringVarP(&flags.Time, "time", "t", "", "Override walltime (e.g. 4h, 2h30m, 04:00:00)")
	fs.StringVar(&flags.Queue, "queue", "", "Queue/partition to submit to")
	fs.StringVarP(&flags.Account, "account", "A", "", "Charge account")
	fs.StringVarP(&flags.Mail, "mail", "M", "", "Notification address (enables end/fail mail)")
	fs.StringVarP(&flags.Stdout, "output", "o", "", "Override job log path")
	fs.StringArrayVar(&flags.EnvSettings, "env", nil, "Set environment variable KEY=VALUE (repeatable)")
	fs.StringArrayVar(&flags.Modules, "module", nil, "Environment module to load in the job (repeatable)")
	fs.BoolVar(&flags.ModulePurge, "module-purge", false, "Run 'module purge' before module loads")
}

// preparedJob bundles everything submit/script need after planning.
type preparedJob struct {
	Config   *mesh.Config
	Geometry *mesh.Geometry
	Env      *runenv.Environment
	Launcher *launcher.Launcher
	Spec     *scheduler.JobSpec
}

// prepareJob loads and validates the mesh config, plans the rank layout,
// assembles the runtime environment, and builds the job spec. Shared by
// submit, script, and the local run path.
func prepareJob(configPath string, flags *JobFlags) (*preparedJob, error) {
	if !utils.IsXML(configPath) {
		utils.PrintWarning("Mesh config %s does not look like an XML file", configPath)
	}

	meshCfg, err := mesh.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := meshCfg.Validate(); err != nil {
		return nil, err
	}

	nodes := config.Global.Nodes
	if flags.Nodes > 0 {
		nodes = flags.Nodes
	}
	ppn := config.Global.Ppn
	if flags.Ppn > 0 {
		ppn = flags.Ppn
	}

	geo, err := mesh.PlanGeometry(meshCfg, nodes, ppn)
	if err != nil {
		return nil, err
	}

	walltimeStr := config.Global.Walltime
	if flags.Time != "" {
		walltimeStr = flags.Time
	}
	walltime, err := utils.ParseDuration(walltimeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid walltime %q: %w", walltimeStr, err)
	}

	modules := config.Global.Modules
	if len(flags.Modules) > 0 {
		modules = flags.Modules
	}

	env := runenv.Assemble(runenv.Options{
		InstallRoot: config.Global.InstallRoot,
		ModelsDir:   config.Global.ModelsDir,
		PluginsDir:  config.Global.PluginsDir,
		VenvDir:     config.Global.VenvDir,
		Modules:     modules,
		ModulePurge: flags.ModulePurge,
		Extra:       flags.EnvSettings,
	})

	// No launcher on the submitting host is fine for script rendering and
	// scheduler submission; it only has to exist on the compute nodes.
	lnch, err := launcher.New(config.Global.LauncherBin)
	if err != nil {
		utils.PrintDebug("No MPI launcher on this host (%v); using %s command form", err, launcher.LauncherAprun)
		lnch = launcher.Default()
	}

	absConfigPath, err := filepath.Abs(configPath)
	if err != nil {
		absConfigPath = configPath
	}

	command, err := lnch.CommandLine(geo.Ranks, config.Global.MeshBin, absConfigPath)
	if err != nil {
		return nil, err
	}

	name := flags.Name
	if name == "" {
		name = "mesh_" + meshCfg.MeshName
	}

	queue := flags.Queue
	if queue == "" {
		queue = config.Global.Queue
	}
	account := flags.Account
	if account == "" {
		account = config.Global.Account
	}
	mailUser := flags.Mail
	if mailUser == "" {
		mailUser = config.Global.MailUser
	}

	stdout := flags.Stdout
	if stdout == "" && config.Global.LogsDir != "" {
		stdout = filepath.Join(config.Global.LogsDir, strings.ReplaceAll(name, "/", "--")+".log")
	}
	if stdout != "" {
		if err := utils.EnsureDir(filepath.Dir(stdout)); err != nil {
			utils.PrintWarning("Cannot create log directory %s: %v", filepath.Dir(stdout), err)
		}
	}

	spec := &scheduler.JobSpec{
		Name:       name,
		Nodes:      geo.Nodes,
		Ppn:        geo.Ppn,
		Ranks:      geo.Ranks,
		Walltime:   walltime,
		Queue:      queue,
		Account:    account,
		MailUser:   mailUser,
		MailOnEnd:  mailUser != "",
		MailOnFail: mailUser != "",
		Stdout:     stdout,
		SetupLines: env.ScriptLines,
		Command:    command,
		Metadata: map[string]string{
			"Mesh Config": absConfigPath,
			"Mesh Name":   meshCfg.MeshName,
			"Models":      strings.Join(meshCfg.Models(), ", "),
		},
	}

	return &preparedJob{
		Config:   meshCfg,
		Geometry: geo,
		Env:      env,
		Launcher: lnch,
		Spec:     spec,
	}, nil
}

// preflight verifies the pieces a submission depends on and returns a list
// of problems (empty = ready). Used by submit (hard stop) and doctor.
func preflight() []string {
	var problems []string

	if !utils.DirExists(config.Global.InstallRoot) {
		problems = append(problems, fmt.Sprintf("install root %s does not exist", config.Global.InstallRoot))
	}
	if !utils.DirExists(config.Global.ModelsDir) {
		problems = append(problems, fmt.Sprintf("models directory %s does not exist", config.Global.ModelsDir))
	}
	if !utils.FileExists(config.Global.MeshBin) {
		problems = append(problems, fmt.Sprintf("mesh executable %s not found", config.Global.MeshBin))
	} else if !utils.IsExecutable(config.Global.MeshBin) {
		problems = append(problems, fmt.Sprintf("mesh executable %s is not executable", config.Global.MeshBin))
	}

	return problems
}
