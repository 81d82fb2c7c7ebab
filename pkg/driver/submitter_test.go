package driver

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/future"
	"github.com/ajitpratap0/widecol/pkg/models"
)

func TestSubmitterBoundsInFlight(t *testing.T) {
	s, err := NewSubmitter(2, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Release(time.Second)
	assert.Equal(t, 2, s.Cap())

	var inFlight, peak int32
	release := make(chan struct{})
	execute := func(ctx context.Context, q models.Query) (models.ResultSet, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return models.NewSliceResultSet(models.ExecutionInfo{Host: "h"}), nil
	}

	futures := make([]*future.Future[models.ResultSet], 0, 4)
	for i := 0; i < 4; i++ {
		futures = append(futures, s.Submit(context.Background(), models.Query{Statement: "SELECT 1"}, execute))
	}

	assert.Eventually(t, func() bool { return s.Running() == 2 }, time.Second, 5*time.Millisecond)
	close(release)
	for _, f := range futures {
		_, err := f.Wait()
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestSubmitterSaturatedReturnsImmediately(t *testing.T) {
	s, err := NewSubmitter(1, nil)
	require.NoError(t, err)
	defer s.Release(time.Second)

	release := make(chan struct{})
	held := func(ctx context.Context, _ models.Query) (models.ResultSet, error) {
		<-release
		return models.NewSliceResultSet(models.ExecutionInfo{Host: "h"}), nil
	}

	first := s.Submit(context.Background(), models.Query{}, held)
	assert.Eventually(t, func() bool { return s.Running() == 1 }, time.Second, 5*time.Millisecond)

	start := time.Now()
	second := s.Submit(context.Background(), models.Query{}, held)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.False(t, second.IsDone())

	close(release)
	_, err = first.Wait()
	require.NoError(t, err)
	_, err = second.Wait()
	require.NoError(t, err)
}

func TestSubmitterCancelWhileQueued(t *testing.T) {
	s, err := NewSubmitter(1, nil)
	require.NoError(t, err)
	defer s.Release(time.Second)

	release := make(chan struct{})
	var calls int32
	held := func(ctx context.Context, _ models.Query) (models.ResultSet, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return models.NewSliceResultSet(models.ExecutionInfo{}), nil
	}

	first := s.Submit(context.Background(), models.Query{}, held)
	assert.Eventually(t, func() bool { return s.Running() == 1 }, time.Second, 5*time.Millisecond)

	queued := s.Submit(context.Background(), models.Query{}, held)
	assert.True(t, queued.Cancel())
	_, err = queued.Wait()
	assert.True(t, errors.IsType(err, errors.ErrorTypeCancelled))

	close(release)
	_, err = first.Wait()
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return s.Running() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSubmitterResult(t *testing.T) {
	s, err := NewSubmitter(0, nil)
	require.NoError(t, err)
	defer s.Release(time.Second)
	assert.Equal(t, -1, s.Cap())

	f := s.Submit(context.Background(), models.Query{Statement: "SELECT 1"}, stubDriver{}.Execute)
	rs, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stub", rs.Info().Host)
}

func TestSubmitterCancel(t *testing.T) {
	s, err := NewSubmitter(1, nil)
	require.NoError(t, err)
	defer s.Release(time.Second)

	started := make(chan struct{})
	f := s.Submit(context.Background(), models.Query{}, func(ctx context.Context, _ models.Query) (models.ResultSet, error) {
		close(started)
		<-ctx.Done()
		return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeConnection, "interrupted")
	})
	<-started
	assert.True(t, f.Cancel())
	_, err = f.Wait()
	assert.Error(t, err)
}

func TestSubmitterReleased(t *testing.T) {
	s, err := NewSubmitter(1, nil)
	require.NoError(t, err)
	s.Release(time.Second)

	_, err = s.Submit(context.Background(), models.Query{}, stubDriver{}.Execute).Wait()
	assert.True(t, errors.IsConnection(err))
}
