package utils

import (
	"os"
	"path/filepath"
	"runtime"
)

const defaultAppName = "farepay"

type AppPaths struct {
	AppDir    string
	ConfigDir string
	LogDir    string
	DataDir   string
}

// GetAppPaths resolves the per-user directories for appName. FAREPAY_HOME,
// when set, puts everything under a single directory.
func GetAppPaths(appName string) *AppPaths {
	if appName == "" {
		appName = defaultAppName
	}

	paths := &AppPaths{}

	if home := os.Getenv("FAREPAY_HOME"); home != "" {
		paths.AppDir = home
		paths.ConfigDir = home
		paths.LogDir = filepath.Join(home, "logs")
		paths.DataDir = home
		ensureDirs(paths)
		return paths
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		if homeDir, err = os.Getwd(); err != nil {
			homeDir = "."
		}
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(homeDir, "AppData", "Roaming")
		}
		paths.AppDir = filepath.Join(appData, appName)
		paths.ConfigDir = paths.AppDir
		paths.LogDir = filepath.Join(paths.AppDir, "logs")
		paths.DataDir = paths.AppDir

	case "darwin":
		paths.AppDir = filepath.Join(homeDir, "Library", "Application Support", appName)
		paths.ConfigDir = paths.AppDir
		paths.LogDir = filepath.Join(homeDir, "Library", "Logs", appName)
		paths.DataDir = paths.AppDir

	case "linux":
		// XDG base directories
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(homeDir, ".config")
		}

		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(homeDir, ".local", "share")
		}

		stateHome := os.Getenv("XDG_STATE_HOME")
		if stateHome == "" {
			stateHome = filepath.Join(homeDir, ".local", "state")
		}

		paths.AppDir = filepath.Join(dataHome, appName)
		paths.ConfigDir = filepath.Join(configHome, appName)
		paths.LogDir = filepath.Join(stateHome, appName, "logs")
		paths.DataDir = filepath.Join(dataHome, appName)

	default:
		paths.AppDir = filepath.Join(homeDir, "."+appName)
		paths.ConfigDir = paths.AppDir
		paths.LogDir = paths.AppDir
		paths.DataDir = paths.AppDir
	}

	ensureDirs(paths)
	return paths
}

func ensureDirs(paths *AppPaths) {
	for _, dir := range []string{paths.AppDir, paths.ConfigDir, paths.LogDir, paths.DataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			paths.AppDir = "."
			paths.ConfigDir = "."
			paths.LogDir = "."
			paths.DataDir = "."
			return
		}
	}
}

// GetDataPath returns the path to a data file
func (ap *AppPaths) GetDataPath(filename string) string {
	return filepath.Join(ap.DataDir, filename)
}
