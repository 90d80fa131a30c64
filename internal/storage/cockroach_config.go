package storage

import "time"

// CockroachConfig configures connection pooling for the conversation store's
// CockroachDB pool (C5). A streaming agent endpoint holds a connection open
// for the duration of a turn's persistence write, not the whole SSE
// response, so the pool only needs to cover concurrent turn completions.
type CockroachConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultCockroachConfig returns pool settings sized for a single
// ragagent instance; multi-instance deployments should size MaxOpenConns
// against CockroachDB's connection budget divided by instance count.
func DefaultCockroachConfig() *CockroachConfig {
	return &CockroachConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}
