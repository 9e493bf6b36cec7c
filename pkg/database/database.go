// Package database builds configured database/sql pools.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type Options struct {
	Driver          string
	DataSource      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MaxElapsedTime  time.Duration
}

type Option func(*Options)

func WithDriver(driver string) Option {
	return func(o *Options) { o.Driver = driver }
}

func WithDataSource(dsn string) Option {
	return func(o *Options) { o.DataSource = dsn }
}

func WithMaxOpenConns(count int) Option {
	return func(o *Options) { o.MaxOpenConns = count }
}

func WithMaxIdleConns(count int) Option {
	return func(o *Options) { o.MaxIdleConns = count }
}

func WithConnMaxLifetime(duration time.Duration) Option {
	return func(o *Options) { o.ConnMaxLifetime = duration }
}

func WithConnMaxIdleTime(duration time.Duration) Option {
	return func(o *Options) { o.ConnMaxIdleTime = duration }
}

// WithMaxElapsedTime bounds how long New keeps retrying the initial
// connection.
func WithMaxElapsedTime(duration time.Duration) Option {
	return func(o *Options) { o.MaxElapsedTime = duration }
}

// New opens a connection pool, retrying the initial ping with exponential
// backoff until it succeeds or the elapsed-time budget runs out.
func New(opts ...Option) (*sql.DB, error) {
	options := &Options{
		Driver:          "sqlite3",
		DataSource:      ":memory:",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		MaxElapsedTime:  10 * time.Second,
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.Driver == "" {
		return nil, fmt.Errorf("database driver cannot be empty")
	}
	if options.DataSource == "" {
		return nil, fmt.Errorf("database data source cannot be empty")
	}

	var db *sql.DB

	connect := func() error {
		handle, err := sql.Open(options.Driver, options.DataSource)
		if err != nil {
			// A bad driver name never fixes itself.
			return backoff.Permanent(err)
		}

		handle.SetMaxOpenConns(options.MaxOpenConns)
		handle.SetMaxIdleConns(options.MaxIdleConns)
		handle.SetConnMaxLifetime(options.ConnMaxLifetime)
		handle.SetConnMaxIdleTime(options.ConnMaxIdleTime)

		if err := handle.Ping(); err != nil {
			handle.Close()
			return err
		}

		db = handle
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = options.MaxElapsedTime

	if err := backoff.Retry(connect, policy); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
