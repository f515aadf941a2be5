package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".zor"

// Paths holds resolved filesystem paths for ZOR.
type Paths struct {
	Base   string // ~/.zor
	Config string // ~/.zor/config.yaml
}

// ResolvePaths computes the standard paths from the home directory.
// ZOR_HOME overrides the base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("ZOR_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
	}, nil
}

// EnsureDirs creates the base directory if it does not exist.
func (p Paths) EnsureDirs() error {
	return os.MkdirAll(p.Base, 0o700)
}
