package interpreter

import "os"

// WorkDir reads and changes the working directory commands run in.
type WorkDir interface {
	Getwd() (string, error)
	Chdir(dir string) error
}

// OSWorkDir is the working directory of this process.
type OSWorkDir struct{}

// Getwd implements WorkDir.
func (OSWorkDir) Getwd() (string, error) {
	return os.Getwd()
}

// Chdir implements WorkDir.
func (OSWorkDir) Chdir(dir string) error {
	return os.Chdir(dir)
}
