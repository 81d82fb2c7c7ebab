package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/driver"
	"github.com/ajitpratap0/widecol/pkg/execution"
	"github.com/ajitpratap0/widecol/pkg/json"
	"github.com/ajitpratap0/widecol/pkg/logger"
	"github.com/ajitpratap0/widecol/pkg/models"
	"github.com/ajitpratap0/widecol/pkg/query"
	"github.com/ajitpratap0/widecol/pkg/reads"
	"github.com/ajitpratap0/widecol/pkg/serializers"
)

// countOptions are the flags of the count command
type countOptions struct {
	Driver  string
	DSN     string
	Tables  []string
	Keys    []string
	Columns []string
	Mode    string
	KeyType string
	Async   bool
}

// countOutput is the JSON document printed by the count command
type countOutput struct {
	Table     string         `json:"table"`
	Mode      string         `json:"mode"`
	Path      string         `json:"path"`
	Host      string         `json:"host"`
	Attempts  int            `json:"attempts"`
	LatencyMS float64        `json:"latency_ms"`
	Counts    map[string]int `json:"counts"`
}

func newCountCmd(configFile *string) *cobra.Command {
	opts := &countOptions{}

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count columns per row key over a row slice",
		Long: `Count columns per row key for the given keys of a table and print the
result as JSON. Several tables are read concurrently and printed as an array.

Example:
  widecol count --config widecol.yaml --table user_info --keys acct_0,acct_1 --mode legacy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := setup(*configFile)
			if err != nil {
				return err
			}
			defer done()
			return runCount(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", "", "Driver name, overrides the configuration")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "Driver connection string, overrides the configuration")
	cmd.Flags().StringSliceVarP(&opts.Tables, "table", "t", nil, "Tables (column families) to read (required)")
	cmd.Flags().StringSliceVarP(&opts.Keys, "keys", "k", nil, "Row keys to read; all rows when empty")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "Payload columns to select in native mode; all when empty")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "Row mode: native or legacy; defaults to the configuration")
	cmd.Flags().StringVar(&opts.KeyType, "key-type", "text", "Row key type: text, ascii, int, bigint or uuid")
	cmd.Flags().BoolVar(&opts.Async, "async", false, "Use non-blocking execution")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

// runCount opens the configured driver, runs one row-slice count and writes
// the result to out.
func runCount(ctx context.Context, cfg *config.Config, opts *countOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Driver != "" {
		cfg.Driver.Name = opts.Driver
	}
	if opts.DSN != "" {
		cfg.Driver.DSN = opts.DSN
	}
	if opts.Mode != "" {
		mode, err := config.ParseRowMode(opts.Mode)
		if err != nil {
			return err
		}
		cfg.Reads.RowMode = mode
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.Get().With(
		zap.String("component", "widecol-cli"),
		zap.String("driver", cfg.Driver.Name),
		zap.Strings("tables", opts.Tables),
	)

	d, err := driver.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open driver %s: %w", cfg.Driver.Name, err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Warn("failed to close driver", zap.Error(err))
		}
	}()

	e, err := execution.NewExecutor(d,
		execution.WithLogger(log),
		execution.WithRequestTimeout(cfg.Timeouts.Request))
	if err != nil {
		return err
	}

	var results []*countOutput
	switch strings.ToLower(opts.KeyType) {
	case "text", "":
		results, err = count[string](ctx, e, cfg, opts, serializers.String(), identity)
	case "ascii":
		results, err = count[string](ctx, e, cfg, opts, serializers.ASCII(), identity)
	case "int":
		results, err = count[int32](ctx, e, cfg, opts, serializers.Int32Text(), parseInt32)
	case "bigint":
		results, err = count[int64](ctx, e, cfg, opts, serializers.Int64Text(), parseInt64)
	case "uuid":
		results, err = count[uuid.UUID](ctx, e, cfg, opts, serializers.UUID(), uuid.Parse)
	default:
		return fmt.Errorf("unknown key type %q", opts.KeyType)
	}
	if err != nil {
		return err
	}

	enc := json.NewStreamingEncoder(out, len(results) > 1)
	enc.SetPretty("  ")
	for _, r := range results {
		log.Info("count completed",
			zap.String("table", r.Table),
			zap.Int("keys", len(r.Counts)),
			zap.String("host", r.Host),
			zap.Float64("latency_ms", r.LatencyMS))
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return enc.Close()
}

func count[K comparable](ctx context.Context, e *execution.Executor, cfg *config.Config, opts *countOptions,
	keys serializers.Deserializer[K], parse func(string) (K, error)) ([]*countOutput, error) {
	if len(opts.Tables) == 0 {
		return nil, fmt.Errorf("at least one table is required")
	}

	values := make([]K, 0, len(opts.Keys))
	for _, s := range opts.Keys {
		k, err := parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q: %w", s, err)
		}
		values = append(values, k)
	}

	queries := make([]*reads.RowSliceColumnCountQuery[K], 0, len(opts.Tables))
	for _, table := range opts.Tables {
		slice := query.NewRowSlice(cfg, table)
		slice.Columns = opts.Columns
		q, err := query.Build(slice, values...)
		if err != nil {
			return nil, err
		}

		rq, err := reads.NewRowSliceColumnCountQuery(e, models.NewColumnFamily(table, keys), q, reads.WithConfig(cfg))
		if err != nil {
			return nil, err
		}
		queries = append(queries, rq)
	}

	path := "sync"
	var results []*models.OperationResult[*reads.ColumnCounts[K]]
	switch {
	case len(queries) > 1:
		path = "async"
		var err error
		if results, err = reads.CountAll(ctx, queries...); err != nil {
			return nil, err
		}
	case opts.Async:
		path = "async"
		res, err := queries[0].ExecuteAsync(ctx).Get(ctx)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	default:
		res, err := queries[0].Execute(ctx)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	outputs := make([]*countOutput, len(results))
	for i, res := range results {
		counts := make(map[string]int, res.Result.Len())
		res.Result.Range(func(k K, n int) bool {
			counts[fmt.Sprint(k)] = n
			return true
		})

		outputs[i] = &countOutput{
			Table:     opts.Tables[i],
			Mode:      queries[i].Mode().String(),
			Path:      path,
			Host:      res.Host,
			Attempts:  res.Attempts,
			LatencyMS: float64(res.Latency.Microseconds()) / 1000,
			Counts:    counts,
		}
	}
	return outputs, nil
}

func identity(s string) (string, error) { return s, nil }

func parseInt32(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	return int32(n), err
}

func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
