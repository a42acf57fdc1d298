package config

import (
	"os"
	"path/filepath"
)

const VERSION = "0.3.1"

// MeshBinName is the packaged UCVM mesh extraction executable we launch.
const MeshBinName = "ucvm_mesh_create_mpi"

// Config holds global application settings
type Config struct {
	Debug     bool
	SubmitJob bool
	Version   string

	// UCVM installation layout. ModelsDir and PluginsDir are the two roots
	// whose immediate subdirectories are scanned for lib/ entries.
	InstallRoot string
	ModelsDir   string
	PluginsDir  string
	VenvDir     string
	MeshBin     string

	// Scheduler / launcher binaries (auto-detected when empty)
	SchedulerBin string
	LauncherBin  string

	// Job defaults
	Nodes    int
	Ppn      int
	Walltime string
	Account  string
	Queue    string
	MailUser string
	Modules  []string

	ScriptsDir string
	LogsDir    string
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults fills Global with the built-in defaults. The installation root
// is taken from UCVM_INSTALL_PATH when set, otherwise the parent of the
// directory holding this executable (the tool ships inside <root>/bin).
func LoadDefaults(executablePath string) {
	installRoot := os.Getenv("UCVM_INSTALL_PATH")
	if installRoot == "" {
		programDir := filepath.Dir(executablePath)
		installRoot = filepath.Dir(programDir)
	}

	cwd, _ := os.Getwd()

	Global = Config{
		Debug:     false,
		SubmitJob: true,
		Version:   VERSION,

		InstallRoot: installRoot,
		ModelsDir:   filepath.Join(installRoot, "model"),
		PluginsDir:  filepath.Join(installRoot, "lib"),
		VenvDir:     installRoot,
		MeshBin:     filepath.Join(installRoot, "bin", MeshBinName),

		Nodes:    5,
		Ppn:      16,
		Walltime: "04:00:00",

		ScriptsDir: cwd,
		LogsDir:    filepath.Join(os.Getenv("HOME"), "logs"),
	}
}

// LoadFromViper copies viper-resolved values into Global. Called after
// InitViper and AutoDetectAndSave so that config file, environment, and
// detected binaries all land in one place.
func LoadFromViper() {
	if v := GetString("install_root"); v != "" && v != Global.InstallRoot {
		Global.InstallRoot = v
		Global.ModelsDir = filepath.Join(v, "model")
		Global.PluginsDir = filepath.Join(v, "lib")
		Global.VenvDir = v
		Global.MeshBin = filepath.Join(v, "bin", MeshBinName)
	}
	if v := GetString("models_dir"); v != "" {
		Global.ModelsDir = v
	}
	if v := GetString("plugins_dir"); v != "" {
		Global.PluginsDir = v
	}
	if v := GetString("venv_dir"); v != "" {
		Global.VenvDir = v
	}
	if v := GetString("mesh_bin"); v != "" {
		Global.MeshBin = v
	}
	if v := GetString("scheduler_bin"); v != "" {
		Global.SchedulerBin = v
	}
	if v := GetString("launcher_bin"); v != "" {
		Global.LauncherBin = v
	}
	if v := GetInt("job.nodes"); v > 0 {
		Global.Nodes = v
	}
	if v := GetInt("job.ppn"); v > 0 {
		Global.Ppn = v
	}
	if v := GetString("job.walltime"); v != "" {
		Global.Walltime = v
	}
	Global.Account = GetString("job.account")
	Global.Queue = GetString("job.queue")
	Global.MailUser = GetString("job.mail_user")
	Global.Modules = GetStringSlice("job.modules")
	if v := GetString("scripts_dir"); v != "" {
		Global.ScriptsDir = v
	}
	if v := GetString("logs_dir"); v != "" {
		Global.LogsDir = v
	}
	Global.SubmitJob = GetBool("submit_job")
}
