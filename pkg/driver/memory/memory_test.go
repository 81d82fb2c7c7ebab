package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/widecol/pkg/config"
	"github.com/ajitpratap0/widecol/pkg/driver"
	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/models"
)

func TestExecute(t *testing.T) {
	d := New()
	d.SetHost("10.0.0.1")
	d.Respond("SELECT 1", Response{Rows: []models.Row{TextRow("acct_0", "a")}, Attempts: 2})

	rs, err := d.Execute(context.Background(), models.Query{Statement: "SELECT 1"})
	require.NoError(t, err)

	rows, err := models.All(rs)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].Len())
	assert.Equal(t, "10.0.0.1", rs.Info().Host)
	assert.Equal(t, 2, rs.Info().Attempts)

	rs, err = d.Execute(context.Background(), models.Query{Statement: "SELECT 2"})
	require.NoError(t, err)
	rows, err = models.All(rs)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int64(2), d.Submitted())
}

func TestExecuteFailures(t *testing.T) {
	d := New()
	d.Respond("down", Response{Err: errors.New(errors.ErrorTypeConnection, "coordinator unavailable")})
	d.Respond("slow", Response{Delay: time.Second})

	_, err := d.Execute(context.Background(), models.Query{Statement: "down"})
	assert.True(t, errors.IsConnection(err))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err = d.Execute(ctx, models.Query{Statement: "slow"})
	assert.True(t, errors.IsConnection(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, d.Close())
	_, err = d.Execute(context.Background(), models.Query{Statement: "any"})
	assert.True(t, errors.IsConnection(err))
}

func TestExecuteAsync(t *testing.T) {
	d := New()
	d.RespondRows("q", TextRow("k", "v1", "v2"))

	f := d.ExecuteAsync(context.Background(), models.Query{Statement: "q"})
	rs, err := f.Wait()
	require.NoError(t, err)
	require.True(t, rs.Next())
	assert.Equal(t, 3, rs.Row().Len())
}

func TestRegisteredFactoryLoadsFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	fx := `{
  "host": "fixture-host",
  "default": [["acct_0", "a", "b", "c"], ["acct_1", null]],
  "responses": {"SELECT nothing": []}
}`
	require.NoError(t, os.WriteFile(path, []byte(fx), 0o600))

	cfg := config.NewConfig(Name)
	cfg.Driver.DSN = path

	d, err := driver.Open(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()

	rs, err := d.Execute(context.Background(), models.Query{Statement: "anything"})
	require.NoError(t, err)
	rows, err := models.All(rs)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 4, rows[0].Len())

	v, ok := rows[1].Column(1)
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, "fixture-host", rs.Info().Host)

	t.Run("bad fixture", func(t *testing.T) {
		cfg.Driver.DSN = filepath.Join(t.TempDir(), "missing.json")
		_, err := driver.Open(context.Background(), cfg)
		assert.True(t, errors.IsConfiguration(err))
	})
}
