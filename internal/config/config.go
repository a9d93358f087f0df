// Package config loads cut-trailing-bytes settings from layered JSONC files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/cut-trailing-bytes/pkg/fs"
	"github.com/calvinalkan/cut-trailing-bytes/pkg/trim"
)

// Progress modes.
const (
	ProgressAuto   = "auto"
	ProgressAlways = "always"
	ProgressNever  = "never"
)

// FileName is the project config file name, looked up in the working
// directory.
const FileName = ".cut-trailing-bytes.json"

// appName is the directory name used under the user config dir.
const appName = "cut-trailing-bytes"

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	CutByte  string `json:"cut_byte"`
	Progress string `json:"progress"`
	Confirm  bool   `json:"confirm"`

	// Resolved (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project or explicit config if loaded, empty otherwise
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		CutByte:  "00",
		Progress: ProgressAuto,
		Confirm:  false,
	}
}

// Target returns the parsed cut byte.
func (c Config) Target() (byte, error) {
	return trim.ParseByte(c.CutByte)
}

// fileConfig is the on-disk shape. Pointers tell "unset" apart from an
// explicit zero value so a later layer can turn confirm back off.
type fileConfig struct {
	CutByte  *string `json:"cut_byte"`
	Progress *string `json:"progress"`
	Confirm  *bool   `json:"confirm"`
}

// GlobalPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/cut-trailing-bytes/config.json if set, otherwise
// ~/.config/cut-trailing-bytes/config.json. Returns empty string if the home
// directory cannot be determined.
func GlobalPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, appName, "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", appName, "config.json")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // --config flag value
	Env             map[string]string // environment variables
	FS              fs.FS             // filesystem to read from; nil means the real one
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/cut-trailing-bytes/config.json)
// 3. Project config file in the working directory (.cut-trailing-bytes.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty, replaces 3)
//
// Each loaded file is validated as it is merged, so an error names the file
// that introduced the bad value. CLI flag overrides are applied on top by the
// caller, which runs [Config.Validate] again afterwards.
func Load(input LoadInput) (Config, error) {
	fsys := input.FS
	if fsys == nil {
		fsys = fs.NewReal()
	}

	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("cannot resolve working directory: %w", err)
	}

	cfg := Default()

	// Global config is optional.
	if globalPath := GlobalPath(input.Env); globalPath != "" {
		globalCfg, loaded, err := loadFile(fsys, globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = merge(cfg, globalCfg)
			cfg.Sources.Global = globalPath

			if err := cfg.Validate(); err != nil {
				return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, globalPath, err)
			}
		}
	}

	// Project config is optional; an explicit one must exist.
	projectPath := filepath.Join(workDir, FileName)
	mustExist := false

	if input.ConfigPath != "" {
		projectPath = input.ConfigPath
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}

		mustExist = true

		exists, statErr := fsys.Exists(projectPath)
		if statErr != nil || !exists {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, input.ConfigPath)
		}
	}

	projectCfg, loaded, err := loadFile(fsys, projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = merge(cfg, projectCfg)
		cfg.Sources.Project = projectPath

		if err := cfg.Validate(); err != nil {
			return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, projectPath, err)
		}
	}

	cfg.EffectiveCwd = workDir

	return cfg, nil
}

// Validate checks that every field holds an accepted value.
func (c Config) Validate() error {
	if _, err := c.Target(); err != nil {
		return fmt.Errorf("cut_byte: %w", err)
	}

	switch c.Progress {
	case ProgressAuto, ProgressAlways, ProgressNever:
	default:
		return fmt.Errorf("%w, got %q", ErrInvalidProgress, c.Progress)
	}

	return nil
}

// loadFile loads a config file. If mustExist is false, a missing file is not
// an error and reports loaded=false.
func loadFile(fsys fs.FS, path string, mustExist bool) (fileConfig, bool, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return fileConfig{}, false, nil
		}

		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigFileRead, path, err)
	}

	cfg, err := parse(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	return cfg, true, nil
}

func parse(data []byte) (fileConfig, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg fileConfig

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&cfg); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func merge(base Config, overlay fileConfig) Config {
	if overlay.CutByte != nil {
		base.CutByte = *overlay.CutByte
	}

	if overlay.Progress != nil {
		base.Progress = *overlay.Progress
	}

	if overlay.Confirm != nil {
		base.Confirm = *overlay.Confirm
	}

	return base
}
