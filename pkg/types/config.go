package types

import "errors"

// Config holds the connection and tuning parameters for a migration run.
// It is loaded from ferry.yaml plus FERRY_* environment overrides.
type Config struct {
	// Source (relational snapshot).
	SourceDBPath string `mapstructure:"source_db_path"`
	PageSize     int    `mapstructure:"page_size"`

	// Target (MongoDB).
	MongoURI                      string `mapstructure:"mongo_uri"`
	MongoDatabase                 string `mapstructure:"mongo_database"`
	MongoMaxPoolSize              uint64 `mapstructure:"mongo_max_pool_size"`
	MongoMinPoolSize              uint64 `mapstructure:"mongo_min_pool_size"`
	MongoServerSelectionTimeoutMS int    `mapstructure:"mongo_server_selection_timeout_ms"`
	MongoConnectTimeoutMS         int    `mapstructure:"mongo_connect_timeout_ms"`

	// Run tuning.
	BatchSize  int    `mapstructure:"batch_size"`
	SampleSize int    `mapstructure:"sample_size"`
	LogLevel   string `mapstructure:"log_level"`
}

// Config validation errors.
var (
	ErrSourcePathEmpty    = errors.New("source_db_path must not be empty")
	ErrMongoURIEmpty      = errors.New("mongo_uri must not be empty")
	ErrMongoDatabaseEmpty = errors.New("mongo_database must not be empty")
	ErrBatchSizeInvalid   = errors.New("batch_size must be positive")
	ErrPageSizeInvalid    = errors.New("page_size must be positive")
	ErrSampleSizeInvalid  = errors.New("sample_size must be positive")
	ErrPoolSizeInvalid    = errors.New("mongo_min_pool_size must not exceed mongo_max_pool_size")
)

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.SourceDBPath == "" {
		return ErrSourcePathEmpty
	}
	if c.MongoURI == "" {
		return ErrMongoURIEmpty
	}
	if c.MongoDatabase == "" {
		return ErrMongoDatabaseEmpty
	}
	if c.BatchSize <= 0 {
		return ErrBatchSizeInvalid
	}
	if c.PageSize <= 0 {
		return ErrPageSizeInvalid
	}
	if c.SampleSize <= 0 {
		return ErrSampleSizeInvalid
	}
	if c.MongoMinPoolSize > c.MongoMaxPoolSize {
		return ErrPoolSizeInvalid
	}
	return nil
}
