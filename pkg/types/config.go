package types

import "errors"

// Config selects and parameterizes the backing sheet.
type Config struct {
	Backend     string `json:"backend" yaml:"backend"`
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	Sync        string `json:"sync" yaml:"sync"`
	RedisURL    string `json:"redis_url" yaml:"redis_url"`
	RedisPrefix string `json:"redis_prefix" yaml:"redis_prefix"`
}

// Supported backend names.
const (
	BackendCSV    = "csv"
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Sync strategies. Immediate persists every mutation before it returns;
// on_close defers writes until Flush or Close.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
)

// Config validation errors.
var (
	ErrBackendEmpty        = errors.New("backend must not be empty")
	ErrBackendUnknown      = errors.New("unknown backend")
	ErrSyncStrategyUnknown = errors.New("unknown sync strategy")
	ErrRedisURLEmpty       = errors.New("redis backend requires a URL")
)

var knownBackends = map[string]bool{
	BackendCSV:    true,
	BackendJSONL:  true,
	BackendSQLite: true,
	BackendRedis:  true,
	BackendMemory: true,
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.Sync {
	case "", SyncImmediate, SyncOnClose:
	default:
		return ErrSyncStrategyUnknown
	}
	if c.Backend == BackendRedis && c.RedisURL == "" {
		return ErrRedisURLEmpty
	}
	return nil
}

// SyncStrategy returns the effective sync strategy.
func (c Config) SyncStrategy() string {
	if c.Sync == "" {
		return SyncImmediate
	}
	return c.Sync
}
