// Package postgresql implements the driver.Driver boundary over a pgx
// connection pool. Rows are materialized with their raw text-format column
// bytes, so key deserializers see the same representation every driver uses.
package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/driver"
	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/future"
	"github.com/ajitpratap0/widecol/pkg/logger"
	"github.com/ajitpratap0/widecol/pkg/models"
)

// Name is the registered driver name
const Name = "postgresql"

func init() {
	driver.Register(Name, func(ctx context.Context, cfg *config.Config) (driver.Driver, error) {
		return Open(ctx, cfg)
	})
}

// textResults asks the server for text-format results on every column.
var textResults = pgx.QueryResultFormats{pgx.TextFormatCode}

// closeTimeout bounds how long Close waits for in-flight submissions.
const closeTimeout = 3 * time.Second

// Driver is a PostgreSQL driver.Driver.
type Driver struct {
	pool      *pgxpool.Pool
	submitter *driver.Submitter
	host      string
	logger    *zap.Logger
}

// PoolConfig parses cfg into a pgx pool configuration.
func PoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	if cfg.Driver.DSN == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "postgresql driver requires a dsn")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Driver.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse connection string")
	}

	if cfg.Driver.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.Driver.MaxConns) //nolint:gosec // G115: validated config range
	}
	if cfg.Driver.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.Driver.MinConns) //nolint:gosec // G115: validated config range
	}
	if poolConfig.MinConns > poolConfig.MaxConns {
		poolConfig.MinConns = poolConfig.MaxConns / 2
	}
	if cfg.Timeouts.Connection > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.Timeouts.Connection
	}
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second

	return poolConfig, nil
}

// Open creates the pool and checks that the server answers.
func Open(ctx context.Context, cfg *config.Config) (*Driver, error) {
	poolConfig, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create connection pool")
	}

	d := &Driver{
		pool: pool,
		host: fmt.Sprintf("%s:%d", poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port),
		logger: logger.With(
			zap.String("component", "driver"),
			zap.String("driver", Name),
		),
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to validate connection").
			WithDetail("host", d.host)
	}

	d.submitter, err = driver.NewSubmitter(int(poolConfig.MaxConns), d.logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	d.logger.Info("connected to postgresql",
		zap.String("host", d.host),
		zap.Int32("max_connections", poolConfig.MaxConns),
		zap.Int32("min_connections", poolConfig.MinConns))
	return d, nil
}

// Name implements driver.Driver
func (d *Driver) Name() string { return Name }

// Host returns the address result sets are attributed to
func (d *Driver) Host() string { return d.host }

// Execute implements driver.Driver
func (d *Driver) Execute(ctx context.Context, q models.Query) (models.ResultSet, error) {
	args := make([]interface{}, 0, len(q.Args)+1)
	args = append(args, textResults)
	args = append(args, q.Args...)

	rows, err := d.pool.Query(ctx, q.Statement, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to execute query").
			WithDetail("host", d.host)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.Name
	}

	var out []models.Row
	for rows.Next() {
		out = append(out, copyRow(names, rows.RawValues()))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "error iterating rows").
			WithDetail("host", d.host)
	}

	return models.NewSliceResultSet(models.ExecutionInfo{Host: d.host, Attempts: 1}, out...), nil
}

// ExecuteAsync implements driver.Driver
func (d *Driver) ExecuteAsync(ctx context.Context, q models.Query) *future.Future[models.ResultSet] {
	return d.submitter.Submit(ctx, q, d.Execute)
}

// Close implements driver.Driver
func (d *Driver) Close() error {
	d.submitter.Release(closeTimeout)
	d.pool.Close()
	d.logger.Info("postgresql driver closed")
	return nil
}

// copyRow detaches raw values from the connection's read buffer, which is
// reused on the next call to Next. Null columns stay nil.
func copyRow(names []string, raw [][]byte) models.Row {
	values := make([][]byte, len(raw))
	for i, v := range raw {
		if v != nil {
			values[i] = append(make([]byte, 0, len(v)), v...)
		}
	}
	return models.NewBasicRow(names, values...)
}
