package paths

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// AppName names the per-user config directory and the default log file.
const AppName = "wincmd"

const (
	configFile = "config.toml"
	logFile    = "wincmd.log"
)

// ErrInvalidPath is returned for paths that can never name a directory.
var ErrInvalidPath = errors.New("path contains a NUL byte")

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppName), nil
}

// ConfigFile returns the default config file path, and whether it exists.
func ConfigFile() (string, bool) {
	dir, err := ConfigDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(dir, configFile)
	info, err := os.Stat(path)
	return path, err == nil && !info.IsDir()
}

// LogFile returns the default log destination under the temp dir.
func LogFile() string {
	return filepath.Join(os.TempDir(), logFile)
}

// Resolve turns a cd argument into a directory path. Trailing whitespace is
// dropped; relative paths are joined onto cwd, absolute ones replace it.
func Resolve(cwd, arg string) (string, error) {
	arg = strings.TrimRightFunc(arg, unicode.IsSpace)
	if strings.ContainsRune(arg, 0) {
		return "", ErrInvalidPath
	}
	if filepath.IsAbs(arg) {
		return filepath.Clean(arg), nil
	}
	return filepath.Join(cwd, arg), nil
}

// Parent returns the directory above dir. The root is its own parent.
func Parent(dir string) string {
	return filepath.Dir(dir)
}
