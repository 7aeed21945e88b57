package session

import (
	"os"
	"path/filepath"
)

// EnvHome overrides the base directory; used by tests and scripted setups.
const EnvHome = "MINGLE_HOME"

// BaseDir returns ~/.mingle, or $MINGLE_HOME when set.
func BaseDir() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mingle")
}

// Dir returns the profile-specific directory.
func Dir(profile string) string {
	return filepath.Join(BaseDir(), "profiles", profile)
}

// LockPath returns the lock file path for a profile.
func LockPath(profile string) string {
	return filepath.Join(Dir(profile), "LOCK")
}

// DBPath returns the profile's sqlite database path.
func DBPath(profile string) string {
	return filepath.Join(Dir(profile), "mingle.db")
}

// LogDir returns the log directory for a profile.
func LogDir(profile string) string {
	return filepath.Join(Dir(profile), "logs")
}

// LogPath returns the log file path.
func LogPath(profile string) string {
	return filepath.Join(LogDir(profile), "mingle.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(profile string) error {
	for _, d := range []string{Dir(profile), LogDir(profile)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
