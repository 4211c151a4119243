package ftsearch

import (
	"time"

	"go.uber.org/zap"
)

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverBadger = "badger"
)

const (
	defaultKeyPrefix        = "ftsearch:"
	defaultReadinessTimeout = 10 * time.Second
)

// Option configures the Engine.
type Option func(*engineConfig)

type engineConfig struct {
	driver     string
	addrs      []string
	password   string
	badgerPath string
	keyPrefix  string
	readiness  time.Duration

	language     string
	poolSize     int
	maxBatchSize int
	format       func(time.Duration) string

	logger *zap.Logger
}

func defaultConfig() *engineConfig {
	return &engineConfig{
		driver:    DriverMemory,
		keyPrefix: defaultKeyPrefix,
		readiness: defaultReadinessTimeout,
		logger:    zap.NewNop(),
	}
}

// WithLanguage sets the default tokenizer language (english when unset).
func WithLanguage(lang string) Option {
	return func(c *engineConfig) { c.language = lang }
}

// WithMemory keeps documents in process memory. This is the default.
func WithMemory() Option {
	return func(c *engineConfig) { c.driver = DriverMemory }
}

// WithRedis stores documents in Redis.
func WithRedis(password string, addrs ...string) Option {
	return func(c *engineConfig) {
		c.driver = DriverRedis
		c.addrs = addrs
		c.password = password
	}
}

// WithBadger stores documents in an embedded badger database at path.
// An empty path opens badger in in-memory mode.
func WithBadger(path string) Option {
	return func(c *engineConfig) {
		c.driver = DriverBadger
		c.badgerPath = path
	}
}

// WithKeyPrefix namespaces the storage keys of this engine.
func WithKeyPrefix(prefix string) Option {
	return func(c *engineConfig) { c.keyPrefix = prefix }
}

// WithReadinessTimeout bounds how long New waits for the storage backend.
func WithReadinessTimeout(d time.Duration) Option {
	return func(c *engineConfig) { c.readiness = d }
}

// WithPoolSize sets the number of workers running hooked async searches.
func WithPoolSize(n int) Option {
	return func(c *engineConfig) { c.poolSize = n }
}

// WithMaxBatchSize caps the number of items InsertBatch and RemoveBatch accept.
func WithMaxBatchSize(n int) Option {
	return func(c *engineConfig) { c.maxBatchSize = n }
}

// WithElapsedFormatter replaces the formatter of Results.Elapsed.Formatted.
func WithElapsedFormatter(fn func(time.Duration) string) Option {
	return func(c *engineConfig) { c.format = fn }
}

// WithLogger sets the logger used by storage backends.
func WithLogger(l *zap.Logger) Option {
	return func(c *engineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
