package driver

import (
	"context"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/future"
	"github.com/ajitpratap0/widecol/pkg/models"
)

// Submitter runs non-blocking submissions on a bounded worker pool, so at most
// size driver calls are in flight at once. Submissions past the bound are
// queued; Submit itself never blocks.
type Submitter struct {
	pool   *ants.Pool
	logger *zap.Logger
}

// NewSubmitter creates a pool of size workers. A size <= 0 leaves the pool
// unbounded.
func NewSubmitter(size int, log *zap.Logger) (*Submitter, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if size <= 0 {
		size = -1
	}
	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(v any) {
		log.Error("driver submission panic", zap.Any("panic", v))
	}))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create submission pool")
	}
	return &Submitter{pool: pool, logger: log}, nil
}

// Submit hands execute(ctx, q) to the pool and returns its future at once.
// When every worker is busy the call waits for a free one off the caller's
// goroutine. Cancelling the future before the call completes cancels the
// context passed to execute; a submission cancelled while still queued never
// reaches the driver.
func (s *Submitter) Submit(ctx context.Context, q models.Query, execute func(context.Context, models.Query) (models.ResultSet, error)) *future.Future[models.ResultSet] {
	ctx, cancel := context.WithCancel(ctx)
	f := future.New[models.ResultSet](cancel)
	task := func() {
		defer cancel()
		if ctx.Err() != nil {
			f.Resolve(nil, errors.Wrap(ctx.Err(), errors.ErrorTypeCancelled, "submission cancelled before execution"))
			return
		}
		rs, err := execute(ctx, q)
		f.Resolve(rs, err)
	}
	go func() {
		if err := s.pool.Submit(task); err != nil {
			cancel()
			f.Resolve(nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to submit query"))
		}
	}()
	return f
}

// Running returns the number of submissions currently executing.
func (s *Submitter) Running() int { return s.pool.Running() }

// Cap returns the pool size, or -1 when unbounded.
func (s *Submitter) Cap() int { return s.pool.Cap() }

// Release waits up to timeout for running submissions, then frees the pool.
func (s *Submitter) Release(timeout time.Duration) {
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		s.logger.Warn("submission pool did not drain", zap.Error(err))
	}
}
