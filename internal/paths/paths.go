// Package paths resolves the configuration file location.
package paths

import (
	"os"
	"path/filepath"
)

// DefaultConfigFileName is the CWD-relative config file used when no
// override is active.
const DefaultConfigFileName = "ferry.yaml"

// EnvConfigFile is the environment variable overriding the config file.
const EnvConfigFile = "FERRY_CONFIG"

// ResolveConfigFile returns the configuration file path following the
// precedence chain: flag > FERRY_CONFIG env > $(CWD)/ferry.yaml.
//
// The returned path may not exist; a missing config file is not an error
// because every setting has a default or an environment override.
func ResolveConfigFile(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigFile); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultConfigFileName), nil
}
