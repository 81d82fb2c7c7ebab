package reads_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/driver/memory"
	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/execution"
	"github.com/ajitpratap0/widecol/pkg/models"
	"github.com/ajitpratap0/widecol/pkg/reads"
	"github.com/ajitpratap0/widecol/pkg/serializers"
	"github.com/ajitpratap0/widecol/pkg/testutil"
)

const stmt = `SELECT * FROM "accounts"."user_info"`

var userInfo = models.NewColumnFamily("user_info", serializers.Deserializer[string](serializers.String()))

func newExecutor(t *testing.T, d *memory.Driver) *execution.Executor {
	t.Helper()
	e, err := execution.NewExecutor(d, execution.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)
	return e
}

func newQuery(t *testing.T, d *memory.Driver, mode config.RowMode) *reads.RowSliceColumnCountQuery[string] {
	t.Helper()
	q, err := reads.NewRowSliceColumnCountQuery(newExecutor(t, d), userInfo,
		models.Query{Statement: stmt, Keyspace: "accounts"}, reads.WithRowMode(mode))
	require.NoError(t, err)
	return q
}

// run executes q on both paths and checks they agree.
func run(t *testing.T, q *reads.RowSliceColumnCountQuery[string]) map[string]int {
	t.Helper()
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	syncRes, err := q.Execute(ctx)
	require.NoError(t, err)

	asyncRes, err := q.ExecuteAsync(ctx).Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, syncRes.Result.Map(), asyncRes.Result.Map())
	return syncRes.Result.Map()
}

func TestRowSliceColumnCountEndToEnd(t *testing.T) {
	d := memory.New()
	d.RespondRows(stmt,
		memory.TextRow("acct_0", "a", "b", "c"),
		memory.TextRow("acct_1", "a"),
	)

	assert.Equal(t, map[string]int{"acct_0": 3, "acct_1": 1}, run(t, newQuery(t, d, config.RowModeNative)))
	assert.Equal(t, map[string]int{"acct_0": 1, "acct_1": 1}, run(t, newQuery(t, d, config.RowModeLegacy)))
}

func TestRowSliceColumnCountModes(t *testing.T) {
	tests := []struct {
		name string
		mode config.RowMode
		rows []models.Row
		want map[string]int
	}{
		{
			name: "empty result",
			mode: config.RowModeNative,
			want: map[string]int{},
		},
		{
			name: "legacy empty result",
			mode: config.RowModeLegacy,
			want: map[string]int{},
		},
		{
			name: "legacy key-only rows still increment",
			mode: config.RowModeLegacy,
			rows: []models.Row{memory.TextRow("k1"), memory.TextRow("k1")},
			want: map[string]int{"k1": 2},
		},
		{
			name: "legacy accumulates per physical row",
			mode: config.RowModeLegacy,
			rows: []models.Row{
				memory.TextRow("k1", "c1"),
				memory.TextRow("k2", "c1"),
				memory.TextRow("k1", "c2"),
				memory.TextRow("k1", "c3"),
			},
			want: map[string]int{"k1": 3, "k2": 1},
		},
		{
			name: "legacy is order independent",
			mode: config.RowModeLegacy,
			rows: []models.Row{
				memory.TextRow("k1", "c3"),
				memory.TextRow("k1", "c2"),
				memory.TextRow("k2", "c1"),
				memory.TextRow("k1", "c1"),
			},
			want: map[string]int{"k1": 3, "k2": 1},
		},
		{
			name: "native keeps the last row for a duplicate key",
			mode: config.RowModeNative,
			rows: []models.Row{
				memory.TextRow("k1", "a", "b"),
				memory.TextRow("k1", "a", "b", "c", "d"),
			},
			want: map[string]int{"k1": 4},
		},
		{
			name: "native key-only row counts zero",
			mode: config.RowModeNative,
			rows: []models.Row{memory.TextRow("k1")},
			want: map[string]int{"k1": 0},
		},
		{
			name: "null non-key columns still count",
			mode: config.RowModeNative,
			rows: []models.Row{models.NewBasicRow(nil, []byte("k1"), nil, nil)},
			want: map[string]int{"k1": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := memory.New()
			d.RespondRows(stmt, tt.rows...)
			assert.Equal(t, tt.want, run(t, newQuery(t, d, tt.mode)))
		})
	}
}

func TestRowSliceColumnCountMalformedRow(t *testing.T) {
	tests := []struct {
		name string
		rows []models.Row
	}{
		{
			name: "undecodable key",
			rows: []models.Row{
				memory.TextRow("k1", "a"),
				models.NewBasicRow(nil, []byte{0xff, 0xfe}, []byte("a")),
			},
		},
		{
			name: "row without columns",
			rows: []models.Row{
				memory.TextRow("k1", "a"),
				models.NewBasicRow(nil),
			},
		},
		{
			name: "null key",
			rows: []models.Row{models.NewBasicRow(nil, nil, []byte("a"))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := memory.New()
			d.RespondRows(stmt, tt.rows...)
			ctx, cancel := testutil.TestContext(t)
			defer cancel()

			for _, mode := range []config.RowMode{config.RowModeNative, config.RowModeLegacy} {
				q := newQuery(t, d, mode)

				res, err := q.Execute(ctx)
				assert.True(t, errors.IsMalformedRow(err), "sync %s: %v", mode, err)
				assert.Nil(t, res)

				res, err = q.ExecuteAsync(ctx).Get(ctx)
				assert.True(t, errors.IsMalformedRow(err), "async %s: %v", mode, err)
				assert.Nil(t, res)
			}
		})
	}
}

func TestRowSliceColumnCountEnvelope(t *testing.T) {
	d := memory.New()
	d.SetHost("10.0.0.7")
	d.Respond(stmt, memory.Response{
		Rows:     []models.Row{memory.TextRow("acct_0", "a")},
		Delay:    5 * time.Millisecond,
		Attempts: 2,
	})

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	res, err := newQuery(t, d, config.RowModeNative).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", res.Host)
	assert.Equal(t, 2, res.Attempts)
	assert.GreaterOrEqual(t, res.Latency, 5*time.Millisecond)
	assert.Equal(t, 1, res.Result.Get("acct_0"))
}

func TestRowSliceColumnCountConnectionError(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	t.Run("untyped driver failure", func(t *testing.T) {
		d := memory.New()
		d.Respond(stmt, memory.Response{Err: io.ErrUnexpectedEOF})
		q := newQuery(t, d, config.RowModeNative)

		_, err := q.Execute(ctx)
		assert.True(t, errors.IsConnection(err))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

		_, err = q.ExecuteAsync(ctx).Get(ctx)
		assert.True(t, errors.IsConnection(err))
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("connection error relayed unmodified", func(t *testing.T) {
		want := errors.New(errors.ErrorTypeConnection, "no hosts available")
		d := memory.New()
		d.Respond(stmt, memory.Response{Err: want})
		q := newQuery(t, d, config.RowModeLegacy)

		_, err := q.Execute(ctx)
		assert.Same(t, want, err)

		_, err = q.ExecuteAsync(ctx).Get(ctx)
		assert.Same(t, want, err)
	})

	t.Run("closed driver", func(t *testing.T) {
		d := memory.New()
		q := newQuery(t, d, config.RowModeNative)
		require.NoError(t, d.Close())

		_, err := q.Execute(ctx)
		assert.True(t, errors.IsConnection(err))
	})
}

func TestRowSliceColumnCountCancel(t *testing.T) {
	d := memory.New()
	d.Respond(stmt, memory.Response{
		Rows:  []models.Row{memory.TextRow("acct_0", "a")},
		Delay: time.Second,
	})

	f := newQuery(t, d, config.RowModeNative).ExecuteAsync(context.Background())
	require.True(t, f.Cancel())

	res, err := f.Wait()
	assert.Nil(t, res)
	assert.True(t, errors.IsType(err, errors.ErrorTypeCancelled))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.Cancel(), "a resolved future cannot be cancelled again")
}

func TestNewRowSliceColumnCountQueryConfigErrors(t *testing.T) {
	d := memory.New()
	e := newExecutor(t, d)
	q := models.Query{Statement: stmt}

	_, err := reads.NewRowSliceColumnCountQuery[string](nil, userInfo, q)
	assert.True(t, errors.IsConfiguration(err))

	_, err = reads.NewRowSliceColumnCountQuery(e, models.ColumnFamily[string]{Name: "user_info"}, q)
	assert.True(t, errors.IsConfiguration(err))

	_, err = reads.NewRowSliceColumnCountQuery(e, userInfo, q, reads.WithRowMode("sideways"))
	assert.True(t, errors.IsConfiguration(err))

	empty, err := reads.NewRowSliceColumnCountQuery(e, userInfo, models.Query{})
	require.NoError(t, err)
	_, err = empty.Execute(context.Background())
	assert.True(t, errors.IsConfiguration(err))
	_, err = empty.ExecuteAsync(context.Background()).Wait()
	assert.True(t, errors.IsConfiguration(err))
	assert.Zero(t, d.Submitted(), "configuration errors are raised before submission")
}

func TestRowSliceColumnCountModeFromConfig(t *testing.T) {
	d := memory.New()
	d.RespondRows(stmt, memory.TextRow("k1", "a"), memory.TextRow("k1", "b"))

	cfg := config.NewConfig(memory.Name)
	cfg.Reads.RowMode = config.RowModeLegacy

	q, err := reads.NewRowSliceColumnCountQuery(newExecutor(t, d), userInfo, models.Query{Statement: stmt}, reads.WithConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, config.RowModeLegacy, q.Mode())

	// later changes to the configuration do not affect a constructed query
	cfg.Reads.RowMode = config.RowModeNative
	assert.Equal(t, map[string]int{"k1": 2}, run(t, q))
}

func TestRowSliceColumnCountUUIDKeys(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	d := memory.New()
	d.RespondRows(stmt, models.NewBasicRow(nil, id[:], []byte("a"), []byte("b")))

	cf := models.NewColumnFamily("sessions", serializers.Deserializer[uuid.UUID](serializers.UUID()))
	q, err := reads.NewRowSliceColumnCountQuery(newExecutor(t, d), cf, models.Query{Statement: stmt})
	require.NoError(t, err)

	res, err := q.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Result.Get(id))
}

func TestColumnCountParserIterationError(t *testing.T) {
	parse := reads.ColumnCountParser(serializers.Deserializer[string](serializers.String()), config.RowModeNative)
	rs := models.NewSliceResultSet(models.ExecutionInfo{}, memory.TextRow("k1", "a")).WithErr(io.ErrUnexpectedEOF)

	res, err := parse(rs)
	assert.Nil(t, res)
	assert.True(t, errors.IsConnection(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCountAll(t *testing.T) {
	d := memory.New()
	d.RespondRows("SELECT 1", memory.TextRow("a", "x", "y"))
	d.RespondRows("SELECT 2", memory.TextRow("b", "x"), memory.TextRow("c"))
	e := newExecutor(t, d)

	q1, err := reads.NewRowSliceColumnCountQuery(e, userInfo, models.Query{Statement: "SELECT 1"})
	require.NoError(t, err)
	q2, err := reads.NewRowSliceColumnCountQuery(e, userInfo, models.Query{Statement: "SELECT 2"})
	require.NoError(t, err)

	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	results, err := reads.CountAll(ctx, q1, q2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, map[string]int{"a": 2}, results[0].Result.Map())
	assert.Equal(t, map[string]int{"b": 1, "c": 0}, results[1].Result.Map())

	t.Run("first failure wins", func(t *testing.T) {
		d.Respond("SELECT 3", memory.Response{Err: io.EOF})
		q3, err := reads.NewRowSliceColumnCountQuery(e, userInfo, models.Query{Statement: "SELECT 3"})
		require.NoError(t, err)

		results, err := reads.CountAll(ctx, q1, q3)
		assert.Nil(t, results)
		assert.True(t, errors.IsConnection(err))
	})

	t.Run("nil query", func(t *testing.T) {
		_, err := reads.CountAll(ctx, q1, nil)
		assert.True(t, errors.IsConfiguration(err))
	})
}
