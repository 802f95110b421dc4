package shim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const configFilename = "config.json"

// The subset of the OCI bundle config the shim cares about.
type bundleConfig struct {
	Root struct {
		// Path is the path to the rootfs
		Path string `json:"path"`
	} `json:"root"`
	Process struct {
		// Args is the command to run
		Args []string `json:"args"`
	} `json:"process"`
}

// Config describes the brainfuck program a bundle asks to run.
type Config struct {
	// Root is the path to the bundle's rootfs.
	Root string
	// Entrypoint is the path of the .bf script, relative to Root.
	Entrypoint string
}

// ReadConfig reads and validates the bundle's config.json: a rootfs path
// and a single-argument command naming an existing .bf script.
func ReadConfig(bundle string) (*Config, error) {
	filePath := filepath.Join(bundle, configFilename)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file %s not found", configFilename)
		}
		return nil, err
	}

	var raw bundleConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if raw.Root.Path == "" {
		return nil, fmt.Errorf("root path not found in config file %s", configFilename)
	}

	if len(raw.Process.Args) != 1 {
		return nil, fmt.Errorf("incorrect number of args in the CMD. Expected 1, got %d", len(raw.Process.Args))
	}

	entrypoint := raw.Process.Args[0]
	if ext := filepath.Ext(entrypoint); ext != ".bf" && ext != ".brainfuck" {
		return nil, fmt.Errorf("entry point (%s) is not a .bf file", entrypoint)
	}

	script := filepath.Join(raw.Root.Path, entrypoint)
	if _, err := os.Stat(script); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("script %s does not exist: %w", entrypoint, err)
		}
		return nil, fmt.Errorf("checking script %s: %w", entrypoint, err)
	}

	return &Config{
		Root:       raw.Root.Path,
		Entrypoint: entrypoint,
	}, nil
}

// ScriptPath returns the absolute path of the entrypoint script.
func (c *Config) ScriptPath() string {
	return filepath.Join(c.Root, c.Entrypoint)
}
