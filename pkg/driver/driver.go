// Package driver defines the boundary to the external tabular driver: submit a
// query, get a result set (blocking) or a future of one (non-blocking).
//
// Concrete drivers live in sub-packages and register a Factory on import:
//
//	import _ "github.com/ajitpratap0/widecol/pkg/driver/postgresql"
//
//	d, err := driver.Open(ctx, cfg)
package driver

import (
	"context"

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/future"
	"github.com/ajitpratap0/widecol/pkg/models"
)

// Driver submits queries to a tabular store. Failures are reported with the
// errors package's connection type; the query layer relays them unchanged.
type Driver interface {
	// Name returns the registered driver name
	Name() string
	// Execute submits q and blocks until a result set or a failure arrives
	Execute(ctx context.Context, q models.Query) (models.ResultSet, error)
	// ExecuteAsync submits q and returns immediately
	ExecuteAsync(ctx context.Context, q models.Query) *future.Future[models.ResultSet]
	// Close releases driver resources
	Close() error
}

// Factory creates a driver from configuration.
type Factory func(ctx context.Context, cfg *config.Config) (Driver, error)

// Async adapts a blocking execute function into a non-blocking submission.
// Drivers without a native asynchronous API use it to implement ExecuteAsync.
func Async(ctx context.Context, q models.Query, execute func(context.Context, models.Query) (models.ResultSet, error)) *future.Future[models.ResultSet] {
	return future.Go(ctx, func(ctx context.Context) (models.ResultSet, error) {
		return execute(ctx, q)
	})
}
