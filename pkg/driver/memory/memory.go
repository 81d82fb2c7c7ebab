// Package memory implements a scripted in-memory driver. Responses are keyed
// by statement text; unmatched statements get the default response.
package memory

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/driver"
	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/future"
	"github.com/ajitpratap0/widecol/pkg/json"
	"github.com/ajitpratap0/widecol/pkg/models"
)

// Name is the registered driver name
const Name = "memory"

func init() {
	driver.Register(Name, func(ctx context.Context, cfg *config.Config) (driver.Driver, error) {
		d := New()
		if cfg.Driver.DSN == "" {
			return d, nil
		}
		if err := d.LoadFixture(cfg.Driver.DSN); err != nil {
			return nil, err
		}
		return d, nil
	})
}

// Response is the scripted outcome of one statement.
type Response struct {
	Rows []models.Row
	// Err, when set, fails the submission
	Err error
	// Delay before the response is delivered
	Delay time.Duration
	// Attempts reported in the execution info
	Attempts int
}

// Driver is an in-memory driver.Driver.
type Driver struct {
	mu        sync.RWMutex
	responses map[string]Response
	fallback  Response
	host      string
	closed    bool

	submitted atomic.Int64
}

// New creates an empty memory driver answering every statement with no rows.
func New() *Driver {
	return &Driver{
		responses: make(map[string]Response),
		host:      "memory",
	}
}

// Name implements driver.Driver
func (d *Driver) Name() string { return Name }

// SetHost sets the host reported in execution info
func (d *Driver) SetHost(host string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.host = host
}

// Respond scripts the response for statement.
func (d *Driver) Respond(statement string, resp Response) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.responses[statement] = resp
}

// RespondRows scripts a successful response for statement.
func (d *Driver) RespondRows(statement string, rows ...models.Row) {
	d.Respond(statement, Response{Rows: rows})
}

// Default scripts the response for unmatched statements.
func (d *Driver) Default(resp Response) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fallback = resp
}

// Submitted returns the number of statements submitted so far.
func (d *Driver) Submitted() int64 {
	return d.submitted.Load()
}

// Execute implements driver.Driver
func (d *Driver) Execute(ctx context.Context, q models.Query) (models.ResultSet, error) {
	d.submitted.Add(1)

	d.mu.RLock()
	closed := d.closed
	resp, ok := d.responses[q.Statement]
	if !ok {
		resp = d.fallback
	}
	host := d.host
	d.mu.RUnlock()

	if closed {
		return nil, errors.New(errors.ErrorTypeConnection, "driver is closed").WithDetail("host", host)
	}

	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeConnection, "query interrupted").WithDetail("host", host)
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "query interrupted").WithDetail("host", host)
	}

	if resp.Err != nil {
		return nil, resp.Err
	}

	attempts := resp.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	rows := make([]models.Row, len(resp.Rows))
	copy(rows, resp.Rows)
	return models.NewSliceResultSet(models.ExecutionInfo{Host: host, Attempts: attempts}, rows...), nil
}

// ExecuteAsync implements driver.Driver
func (d *Driver) ExecuteAsync(ctx context.Context, q models.Query) *future.Future[models.ResultSet] {
	return driver.Async(ctx, q, d.Execute)
}

// Close implements driver.Driver
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// fixture is the on-disk form of scripted responses. Each row is a list of
// column values; a null entry is a null column.
type fixture struct {
	Host      string                 `json:"host"`
	Default   [][]*string            `json:"default"`
	Responses map[string][][]*string `json:"responses"`
}

// LoadFixture loads scripted responses from a JSON file.
func (d *Driver) LoadFixture(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator configuration
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to read memory fixture")
	}

	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse memory fixture").WithDetail("path", path)
	}

	if fx.Host != "" {
		d.SetHost(fx.Host)
	}
	d.Default(Response{Rows: toRows(fx.Default)})
	for stmt, rows := range fx.Responses {
		d.RespondRows(stmt, toRows(rows)...)
	}
	return nil
}

func toRows(values [][]*string) []models.Row {
	rows := make([]models.Row, 0, len(values))
	for _, cols := range values {
		raw := make([][]byte, len(cols))
		for i, c := range cols {
			if c != nil {
				raw[i] = []byte(*c)
			}
		}
		rows = append(rows, models.NewBasicRow(nil, raw...))
	}
	return rows
}

// TextRow builds a row of text columns, handy for scripting responses.
func TextRow(values ...string) models.Row {
	raw := make([][]byte, len(values))
	for i, v := range values {
		raw[i] = []byte(v)
	}
	return models.NewBasicRow(nil, raw...)
}
