// Package config loads graphd's configuration with the same layered
// precedence and JSONC parsing the teacher CLI uses: defaults, then a
// global user config, then a project config or explicit --config file,
// then CLI flag overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds every setting graphd needs beyond the positional <port>
// and <devfile> CLI arguments.
type Config struct {
	LogLevel            string `json:"log_level,omitempty"`             //nolint:tagliatelle
	CheckpointSize      int64  `json:"checkpoint_size,omitempty"`       //nolint:tagliatelle
	LogSize             uint32 `json:"log_size,omitempty"`              //nolint:tagliatelle
	AutoCheckpointEvery int    `json:"auto_checkpoint_every,omitempty"` //nolint:tagliatelle
}

// FileName is the default project config file name.
const FileName = ".graphd.json"

var (
	errConfigInvalid      = errors.New("config: invalid")
	errConfigFileNotFound = errors.New("config: file not found")
	errConfigFileRead     = errors.New("config: could not read file")
	errLogLevelEmpty      = errors.New("config: log_level cannot be empty string")
)

// Default returns graphd's built-in defaults, mirroring
// [github.com/calvinalkan/graphd/internal/durability.DefaultLayout].
func Default() Config {
	return Config{
		LogLevel:            "info",
		CheckpointSize:      64 * 1024 * 1024,
		LogSize:             4096 * 4096,
		AutoCheckpointEvery: 0,
	}
}

// Sources records which config files, if any, contributed to the
// resolved Config — surfaced in startup logs for operability.
type Sources struct {
	Global  string
	Project string
}

// Load resolves configuration with the following precedence (highest
// wins): built-in defaults, global user config, project config (or an
// explicit --config path), then cliOverrides for any field the caller
// set explicitly on the command line.
func Load(workDir, configPath string, cliOverrides Config, overridden map[string]bool, env []string) (Config, Sources, error) {
	cfg := Default()

	var sources Sources

	globalCfg, globalPath, err := loadGlobalConfig(env)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, configPath)
	if err != nil {
		return Config{}, Sources{}, err
	}

	sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	if overridden["log_level"] {
		cfg.LogLevel = cliOverrides.LogLevel
	}

	if overridden["checkpoint_size"] {
		cfg.CheckpointSize = cliOverrides.CheckpointSize
	}

	if overridden["log_size"] {
		cfg.LogSize = cliOverrides.LogSize
	}

	if overridden["auto_checkpoint_every"] {
		cfg.AutoCheckpointEvery = cliOverrides.AutoCheckpointEvery
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, Sources{}, err
	}

	return cfg, sources, nil
}

func getGlobalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "graphd", "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "graphd", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "graphd", "config.json")
	}

	return ""
}

func loadGlobalConfig(env []string) (Config, string, error) {
	globalCfgPath := getGlobalConfigPath(env)
	if globalCfgPath == "" {
		return Config{}, "", nil
	}

	cfg, explicitEmpty, loaded, err := loadConfigFile(globalCfgPath, false)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["log_level"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, globalCfgPath, errLogLevelEmpty)
	}

	return cfg, globalCfgPath, nil
}

func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	var (
		cfgFile   string
		mustExist bool
	)

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, err := os.Stat(cfgFile); err != nil {
			return Config{}, "", fmt.Errorf("%w: %s", errConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, FileName)
		mustExist = false
	}

	cfg, explicitEmpty, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["log_level"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", errConfigInvalid, cfgFile, errLogLevelEmpty)
	}

	return cfg, cfgFile, nil
}

func loadConfigFile(path string, mustExist bool) (Config, map[string]bool, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil, false, nil
		}

		if mustExist {
			return Config{}, nil, false, fmt.Errorf("%w: %s", errConfigFileRead, path)
		}

		return Config{}, nil, false, nil
	}

	cfg, explicitEmpty, err := parseConfig(data)
	if err != nil {
		return Config{}, nil, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}

	return cfg, explicitEmpty, true, nil
}

func parseConfig(data []byte) (Config, map[string]bool, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	explicitEmpty := make(map[string]bool)

	if val, exists := raw["log_level"]; exists {
		if str, ok := val.(string); ok && str == "" {
			explicitEmpty["log_level"] = true
		}
	}

	return cfg, explicitEmpty, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.CheckpointSize != 0 {
		base.CheckpointSize = overlay.CheckpointSize
	}

	if overlay.LogSize != 0 {
		base.LogSize = overlay.LogSize
	}

	if overlay.AutoCheckpointEvery != 0 {
		base.AutoCheckpointEvery = overlay.AutoCheckpointEvery
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.LogLevel == "" {
		return errLogLevelEmpty
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q (want debug|info|warn|error)", errConfigInvalid, cfg.LogLevel)
	}

	return nil
}
