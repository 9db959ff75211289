package sheet

import (
	"fmt"

	"github.com/mesh-intelligence/deskboard/pkg/types"
)

// Open returns the Sheet selected by cfg.Backend. The caller must Close it.
func Open(cfg types.Config) (Sheet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dir := cfg.DataDir
	if dir == "" {
		dir = "."
	}
	switch cfg.Backend {
	case types.BackendCSV:
		return NewCSV(dir)
	case types.BackendJSONL:
		return NewJSONL(dir)
	case types.BackendSQLite:
		return OpenSQLite(dir)
	case types.BackendRedis:
		return OpenRedis(RedisOptions{URL: cfg.RedisURL, Prefix: cfg.RedisPrefix})
	case types.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, cfg.Backend)
	}
}
