// Package sqldb implements the driver.Driver boundary over database/sql. It is
// registered twice: "mysql" (go-sql-driver/mysql) and "sqlite" (modernc.org/sqlite).
package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/driver"
	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/future"
	"github.com/ajitpratap0/widecol/pkg/logger"
	"github.com/ajitpratap0/widecol/pkg/models"
)

// Registered driver names
const (
	MySQL  = "mysql"
	SQLite = "sqlite"
)

func init() {
	for _, name := range []string{MySQL, SQLite} {
		driver.Register(name, func(ctx context.Context, cfg *config.Config) (driver.Driver, error) {
			return Open(ctx, cfg)
		})
	}
}

// Driver is a database/sql driver.Driver.
type Driver struct {
	db        *sql.DB
	submitter *driver.Submitter
	name      string
	host      string
	logger    *zap.Logger
}

// Open opens cfg.Driver.DSN with the database/sql driver named cfg.Driver.Name
// and checks that it answers.
func Open(ctx context.Context, cfg *config.Config) (*Driver, error) {
	name := cfg.Driver.Name
	if name != MySQL && name != SQLite {
		return nil, errors.Newf(errors.ErrorTypeConfig, "sqldb does not serve driver %q", name)
	}
	if cfg.Driver.DSN == "" {
		return nil, errors.Newf(errors.ErrorTypeConfig, "%s driver requires a dsn", name)
	}

	host, err := hostOf(name, cfg.Driver.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(name, cfg.Driver.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to open database")
	}
	if cfg.Driver.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.Driver.MaxConns)
	}
	if cfg.Driver.MinConns > 0 {
		db.SetMaxIdleConns(cfg.Driver.MinConns)
	}

	pingCtx := ctx
	if cfg.Timeouts.Connection > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Timeouts.Connection)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to validate connection").
			WithDetail("host", host)
	}

	d := &Driver{
		db:     db,
		name:   name,
		host:   host,
		logger: logger.With(zap.String("component", "driver"), zap.String("driver", name)),
	}
	d.submitter, err = driver.NewSubmitter(cfg.Driver.MaxConns, d.logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	d.logger.Info("connected", zap.String("host", host), zap.Int("max_connections", cfg.Driver.MaxConns))
	return d, nil
}

// hostOf derives the host reported in execution info from the dsn.
func hostOf(name, dsn string) (string, error) {
	if name == SQLite {
		return "localhost", nil
	}
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse connection string")
	}
	return mc.Addr, nil
}

// Name implements driver.Driver
func (d *Driver) Name() string { return d.name }

// Host returns the address result sets are attributed to
func (d *Driver) Host() string { return d.host }

// DB exposes the underlying handle for schema setup
func (d *Driver) DB() *sql.DB { return d.db }

// Execute implements driver.Driver
func (d *Driver) Execute(ctx context.Context, q models.Query) (models.ResultSet, error) {
	rows, err := d.db.QueryContext(ctx, q.Statement, q.Args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to execute query").
			WithDetail("host", d.host)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to read result columns")
	}

	// Nullness is tracked apart from the bytes: a reused RawBytes buffer
	// cannot tell an empty value from NULL.
	cols := make([]sql.Null[[]byte], len(names))
	dest := make([]interface{}, len(names))
	for i := range cols {
		dest[i] = &cols[i]
	}

	var out []models.Row
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to scan row")
		}
		values := make([][]byte, len(cols))
		for i, c := range cols {
			if c.Valid {
				values[i] = append(make([]byte, 0, len(c.V)), c.V...)
			}
		}
		out = append(out, models.NewBasicRow(names, values...))
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
	d.submitter.Release(3 * time.Second)
	if err := d.db.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to close database")
	}
	return nil
}
