// Package widecol reads wide rows out of tabular stores. A wide row is a row
// key mapped to a sparse set of columns; widecol reports, per key, how many
// columns a row holds, over blocking and non-blocking execution that share
// one result path.
//
// # Row modes
//
// Two physical layouts are supported:
//
//   - native: one physical row per logical row. The first column is the row
//     key and every further column is a column of the wide row, so a row of N
//     columns counts N-1. A key appearing twice keeps the count of its last row.
//   - legacy: one physical row per column, as produced by tables that store a
//     wide row as (key, column1, value). Counts accumulate over the physical
//     rows sharing a key, in any order.
//
// The mode is fixed when a query is constructed and never read again.
//
// # Quick Start
//
//	import (
//	    "context"
//
//	    "github.com/ajitpratap0/widecol/pkg/config"
//	    "github.com/ajitpratap0/widecol/pkg/driver"
//	    _ "github.com/ajitpratap0/widecol/pkg/driver/postgresql"
//	    "github.com/ajitpratap0/widecol/pkg/execution"
//	    "github.com/ajitpratap0/widecol/pkg/models"
//	    "github.com/ajitpratap0/widecol/pkg/query"
//	    "github.com/ajitpratap0/widecol/pkg/reads"
//	    "github.com/ajitpratap0/widecol/pkg/serializers"
//	)
//
//	cfg := config.NewConfig("postgresql")
//	cfg.Driver.DSN = "postgres://localhost:5432/accounts"
//
//	d, _ := driver.Open(ctx, cfg)
//	e, _ := execution.NewExecutor(d)
//
//	q, _ := query.Build(query.NewRowSlice(cfg, "user_info"), "acct_0", "acct_1")
//	cf := models.NewColumnFamily[string]("user_info", serializers.String())
//	rq, _ := reads.NewRowSliceColumnCountQuery(e, cf, q, reads.WithConfig(cfg))
//
//	res, err := rq.Execute(ctx)                 // blocking
//	res, err = rq.ExecuteAsync(ctx).Get(ctx)    // non-blocking
//	n := res.Result.Get("acct_0")
//
// # Key Packages
//
//	pkg/reads         - Row-slice column count query and result container
//	pkg/execution     - Blocking and non-blocking execution over one parse path
//	pkg/typemapping   - Typed extraction of row keys from positional rows
//	pkg/driver        - Driver boundary, registry, postgresql/sqldb/memory drivers
//	pkg/query         - Row-slice statement builder
//	pkg/future        - Cancellable single-assignment results
//	pkg/config        - Configuration loading (viper, YAML, WIDECOL_* env)
//	pkg/errors        - Structured errors: connection, malformed_row, config
//	pkg/logger        - Structured logging
//	pkg/metrics       - Prometheus collectors
//	pkg/observability - OpenTelemetry tracing
//
// # Errors
//
// Driver failures surface as connection errors and are never retried here.
// A row whose key column is missing or undecodable aborts the whole operation
// with a malformed_row error; no partial counts are returned. Invalid inputs
// are reported as config errors before anything is submitted.
package widecol
