package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file (yaml, json, toml)
const ConfigType = "yaml"

// appDirName is the per-user and system config directory name
const appDirName = "ucvm-submit"

// InitViper initializes Viper with proper search paths and defaults
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (UCVM_SUBMIT_*)
// 3. User config file (~/.config/ucvm-submit/config.yaml)
// 4. System config file (/etc/ucvm-submit/config.yaml)
// 5. Defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	// Set config search paths (order matters)
	// User config (highest priority)
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, appDirName))
	}

	// Home directory fallback
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, "."+appDirName))
	}

	// System-wide config (lower priority)
	viper.AddConfigPath("/etc/" + appDirName)

	// Current directory (for development)
	viper.AddConfigPath(".")

	// Environment variables
	viper.SetEnvPrefix("UCVM_SUBMIT")
	viper.AutomaticEnv()

	// Set defaults (lowest priority)
	setDefaults()

	// Read config file (non-fatal if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; will use defaults and auto-detect
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// setDefaults sets default values for all config keys
func setDefaults() {
	viper.SetDefault("install_root", "")
	viper.SetDefault("models_dir", "")
	viper.SetDefault("plugins_dir", "")
	viper.SetDefault("venv_dir", "")
	viper.SetDefault("mesh_bin", "")
	viper.SetDefault("scheduler_bin", "")
	viper.SetDefault("scheduler_type", "")
	viper.SetDefault("launcher_bin", "")
	viper.SetDefault("submit_job", true)
	viper.SetDefault("scripts_dir", "")
	viper.SetDefault("logs_dir", "")

	// Job defaults mirror the cluster profile the tool ships for:
	// 5 nodes x 16 processes = 80 MPI ranks.
	viper.SetDefault("job.nodes", 5)
	viper.SetDefault("job.ppn", 16)
	viper.SetDefault("job.walltime", "04:00:00")
	viper.SetDefault("job.account", "")
	viper.SetDefault("job.queue", "")
	viper.SetDefault("job.mail_user", "")
	viper.SetDefault("job.modules", []string{})
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "."+appDirName, ConfigFilename+"."+ConfigType), nil
	}

	return filepath.Join(userConfigDir, appDirName, ConfigFilename+"."+ConfigType), nil
}

// SaveConfig saves current Viper config to user config file
func SaveConfig() error {
	configPath, err := GetUserConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Create directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write config file
	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ValidateBinary checks if a binary exists and is executable
func ValidateBinary(binPath string) bool {
	if binPath == "" {
		return false
	}

	// If it's a full path, check directly
	if filepath.IsAbs(binPath) {
		info, err := os.Stat(binPath)
		if err != nil {
			return false
		}
		// Check if it's executable (unix-style check)
		return info.Mode()&0111 != 0
	}

	// Otherwise, try to find it in PATH
	_, err := exec.LookPath(binPath)
	return err == nil
}

// DetectSchedulerBin attempts to find a scheduler submission binary.
// Returns (binary_path, scheduler_type) if found.
func DetectSchedulerBin() (string, string) {
	// Try PBS first: it is the scheduler the packaged workflow targets
	if path, err := exec.LookPath("qsub"); err == nil {
		return path, "PBS"
	}

	// Try SLURM
	if path, err := exec.LookPath("sbatch"); err == nil {
		return path, "SLURM"
	}

	return "", ""
}

// DetectLauncherBin attempts to find an MPI launcher binary.
// Cray aprun is preferred since the packaged workflow targets Cray systems;
// srun/mpirun/mpiexec cover everything else.
func DetectLauncherBin() string {
	candidates := []string{"aprun", "srun", "mpirun", "mpiexec"}
	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path
		}
	}
	return ""
}

// AutoDetectAndSave auto-detects binaries and saves to config if needed
// Returns true if config was updated
func AutoDetectAndSave() (bool, error) {
	updated := false

	// Check and detect scheduler binary
	schedulerBin := viper.GetString("scheduler_bin")
	if !ValidateBinary(schedulerBin) {
		detectedBin, detectedType := DetectSchedulerBin()
		if detectedBin != "" {
			viper.Set("scheduler_bin", detectedBin)
			viper.Set("scheduler_type", detectedType)
			updated = true
		}
	}

	// Check and detect MPI launcher binary
	launcherBin := viper.GetString("launcher_bin")
	if !ValidateBinary(launcherBin) {
		if detected := DetectLauncherBin(); detected != "" {
			viper.Set("launcher_bin", detected)
			updated = true
		}
	}

	// Save if anything was updated
	if updated {
		if err := SaveConfig(); err != nil {
			return false, err
		}
	}

	return updated, nil
}

// Thin viper accessors so the rest of the codebase does not import viper
// directly. Keeps the config surface in one package.

func Get(key string) interface{}         { return viper.Get(key) }
func GetString(key string) string        { return viper.GetString(key) }
func GetInt(key string) int              { return viper.GetInt(key) }
func GetBool(key string) bool            { return viper.GetBool(key) }
func GetStringSlice(key string) []string { return viper.GetStringSlice(key) }

// Set writes a value into viper (used by `config set`).
func Set(key string, value interface{}) { viper.Set(key, value) }

// AllSettings returns the full resolved configuration map.
func AllSettings() map[string]interface{} { return viper.AllSettings() }

// ConfigFileUsed returns the path of the loaded config file (empty if none).
func ConfigFileUsed() string { return viper.ConfigFileUsed() }
