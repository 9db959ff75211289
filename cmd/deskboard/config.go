package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/deskboard/internal/paths"
	"github.com/mesh-intelligence/deskboard/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "DESKBOARD"

	cfgKeyBackend     = "backend"
	cfgKeyDataDir     = "data_dir"
	cfgKeySync        = "sync"
	cfgKeyRedisURL    = "redis.url"
	cfgKeyRedisPrefix = "redis.prefix"

	defaultBackend = types.BackendCSV
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# deskboard configuration

# Backend: csv, jsonl, sqlite, redis or memory
backend: csv

# Data directory for file backends (optional; overridable by --data-dir)
# data_dir:

# When to write changes: immediate or on_close
sync: immediate

# redis:
#   url: redis://localhost:6379/0
#   prefix: deskboard
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. Environment variables (DESKBOARD_BACKEND,
// DESKBOARD_REDIS_URL, ...) act as defaults beneath the file, so the
// precedence is flag > config.yaml > env > built-in default.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeySync, types.SyncImmediate)
	v.SetDefault(cfgKeyRedisPrefix, "deskboard")
	for _, key := range []string{cfgKeyBackend, cfgKeySync, cfgKeyRedisURL, cfgKeyRedisPrefix} {
		if val := os.Getenv(envName(key)); val != "" {
			v.SetDefault(key, val)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// envName maps a config key to its environment variable.
func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// ensureDefaultConfigFile writes a default config.yaml if none exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// buildConfig merges flag overrides into the loaded settings.
func buildConfig(v *viper.Viper, flagBackend, flagDataDir string) (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(flagDataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:     v.GetString(cfgKeyBackend),
		DataDir:     dataDir,
		Sync:        v.GetString(cfgKeySync),
		RedisURL:    v.GetString(cfgKeyRedisURL),
		RedisPrefix: v.GetString(cfgKeyRedisPrefix),
	}
	if flagBackend != "" {
		cfg.Backend = flagBackend
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
