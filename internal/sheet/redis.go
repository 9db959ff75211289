package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces deskboard keys when no prefix is configured.
const DefaultRedisPrefix = "deskboard"

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0").
	URL string

	// Prefix namespaces every key; defaults to DefaultRedisPrefix.
	Prefix string

	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration
}

// Redis stores each tab as two lists: <prefix>:<tab>:header holds the
// column names and <prefix>:<tab>:rows holds one JSON array per row. A tab
// write replaces both lists in one MULTI/EXEC.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ Sheet = (*Redis)(nil)

// OpenRedis connects to Redis and verifies the connection with a ping.
func OpenRedis(opts RedisOptions) (*Redis, error) {
	if opts.Prefix == "" {
		opts.Prefix = DefaultRedisPrefix
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Redis{client: client, prefix: opts.Prefix}, nil
}

func (r *Redis) headerKey(tab string) string { return r.prefix + ":" + tab + ":header" }
func (r *Redis) rowsKey(tab string) string   { return r.prefix + ":" + tab + ":rows" }

func (r *Redis) Read(ctx context.Context, tab string) (Grid, error) {
	header, err := r.client.LRange(ctx, r.headerKey(tab), 0, -1).Result()
	if err != nil {
		return Grid{}, fmt.Errorf("reading header of %s: %w", tab, err)
	}
	raw, err := r.client.LRange(ctx, r.rowsKey(tab), 0, -1).Result()
	if err != nil {
		return Grid{}, fmt.Errorf("reading rows of %s: %w", tab, err)
	}
	g := Grid{}
	if len(header) > 0 {
		g.Header = header
	}
	for i, s := range raw {
		var row []string
		if err := json.Unmarshal([]byte(s), &row); err != nil {
			return Grid{}, fmt.Errorf("decoding row %d of %s: %w", i, tab, err)
		}
		g.Rows = append(g.Rows, row)
	}
	return g, nil
}

func (r *Redis) Write(ctx context.Context, tab string, g Grid) error {
	rows := make([]any, 0, len(g.Rows))
	for _, row := range g.Rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encoding row: %w", err)
		}
		rows = append(rows, string(data))
	}
	header := make([]any, len(g.Header))
	for i, h := range g.Header {
		header[i] = h
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.headerKey(tab), r.rowsKey(tab))
		if len(header) > 0 {
			pipe.RPush(ctx, r.headerKey(tab), header...)
		}
		if len(rows) > 0 {
			pipe.RPush(ctx, r.rowsKey(tab), rows...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", tab, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
