package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/metrics"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
)

// Config holds the connection pool settings.
type Config struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	ConnectRetries  uint64        `yaml:"connect_retries"`
}

func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		ConnectRetries:  5,
	}
}

// Row is one result row keyed by column name. []byte values are returned as
// strings.
type Row map[string]any

// Scanner is implemented by *sql.Rows and *sql.Row.
type Scanner interface {
	Scan(dest ...any) error
}

// Executor runs statements. *DB and *Tx implement it.
type Executor interface {
	Query(ctx context.Context, statement string, args ...any) ([]Row, error)
	Select(ctx context.Context, scan func(Scanner) error, statement string, args ...any) error
	Get(ctx context.Context, scan func(Scanner) error, statement string, args ...any) error
	Exec(ctx context.Context, statement string, args ...any) (int64, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DB is the query service: a pooled handle plus transaction support.
type DB struct {
	executor

	db     *sql.DB
	logger logger.Logger
}

var (
	_ Executor = (*DB)(nil)
	_ Executor = (*Tx)(nil)
)

// Open connects to PostgreSQL and pings with exponential backoff until the
// server answers, cfg.ConnectRetries is exhausted or ctx ends.
func Open(ctx context.Context, cfg Config, log logger.Logger, m *metrics.Metrics) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	sqlDB, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db := New(sqlDB, log, m)

	ping := func() error {
		pctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		return db.Ping(pctx)
	}

	strategy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(
				backoff.WithInitialInterval(500*time.Millisecond),
				backoff.WithMaxInterval(10*time.Second),
			),
			cfg.ConnectRetries,
		),
		ctx,
	)

	err = backoff.RetryNotify(ping, strategy, func(err error, d time.Duration) {
		db.logger.Warnf("Database not reachable: %v (next attempt in %s)", err, d)
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.logger.Info("Database connection check: OK")
	return db, nil
}

// New wraps an existing pool.
func New(sqlDB *sql.DB, log logger.Logger, m *metrics.Metrics) *DB {
	return &DB{
		executor: executor{q: sqlDB, metrics: m},
		db:       sqlDB,
		logger:   log.WithField("component", "database"),
	}
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return wrap("ping", "", err)
	}
	return nil
}

// Tx is a transaction-scoped Executor.
type Tx struct {
	executor
}

// WithTransaction runs fn inside a transaction. fn's error, or a panic, rolls
// back; otherwise the transaction commits.
func (d *DB) WithTransaction(ctx context.Context, fn func(tx *Tx) error) (err error) {
	start := time.Now()
	defer func() { d.metrics.ObserveQuery("tx", err, time.Since(start).Seconds()) }()

	sqlTx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap("begin", "", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err = fn(&Tx{executor: executor{q: sqlTx, metrics: d.metrics}}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			d.logger.Errorf("Rollback failed: %v", rbErr)
		}
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return wrap("commit", "", err)
	}
	return nil
}

type executor struct {
	q       querier
	metrics *metrics.Metrics
}

// Query returns every row of statement as a column-keyed map. Used where the
// column set is decided by the statement, such as statistics exports.
func (e executor) Query(ctx context.Context, statement string, args ...any) (result []Row, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveQuery("query", err, time.Since(start).Seconds()) }()

	rows, err := e.q.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, wrap("query", statement, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, wrap("query", statement, err)
	}

	result = []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrap("query", statement, err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("query", statement, err)
	}
	return result, nil
}

// Select calls scan once per result row.
func (e executor) Select(ctx context.Context, scan func(Scanner) error, statement string, args ...any) (err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveQuery("select", err, time.Since(start).Seconds()) }()

	rows, err := e.q.QueryContext(ctx, statement, args...)
	if err != nil {
		return wrap("select", statement, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return wrap("select", statement, err)
		}
	}
	if err := rows.Err(); err != nil {
		return wrap("select", statement, err)
	}
	return nil
}

// Get scans the first result row. It returns an error matching ErrNotFound
// when there is none.
func (e executor) Get(ctx context.Context, scan func(Scanner) error, statement string, args ...any) error {
	found := false
	err := e.Select(ctx, func(s Scanner) error {
		if found {
			return nil
		}
		found = true
		return scan(s)
	}, statement, args...)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

// Exec runs a mutation and returns the number of rows affected.
func (e executor) Exec(ctx context.Context, statement string, args ...any) (affected int64, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveQuery("exec", err, time.Since(start).Seconds()) }()

	res, err := e.q.ExecContext(ctx, statement, args...)
	if err != nil {
		return 0, wrap("exec", statement, err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return 0, wrap("exec", statement, err)
	}
	return affected, nil
}
