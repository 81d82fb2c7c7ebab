package execution

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/widecol/pkg/driver"
	"github.com/ajitpratap0/widecol/pkg/errors"
	"github.com/ajitpratap0/widecol/pkg/future"
	"github.com/ajitpratap0/widecol/pkg/logger"
	"github.com/ajitpratap0/widecol/pkg/metrics"
	"github.com/ajitpratap0/widecol/pkg/models"
	"github.com/ajitpratap0/widecol/pkg/observability"
)

const (
	pathSync  = "sync"
	pathAsync = "async"
)

// Executor submits operations to a driver. It holds no per-call state and is
// safe for concurrent use.
type Executor struct {
	driver   driver.Driver
	logger   *zap.Logger
	tracer   *observability.OperationTracer
	timeout  time.Duration
	observer StateObserver
}

// Option configures an Executor
type Option func(*Executor)

// WithLogger sets the executor logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRequestTimeout bounds every submission; zero means no bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithStateObserver registers a callback for execution state transitions.
func WithStateObserver(o StateObserver) Option {
	return func(e *Executor) { e.observer = o }
}

// NewExecutor creates an executor over d.
func NewExecutor(d driver.Driver, opts ...Option) (*Executor, error) {
	if d == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "executor requires a driver")
	}
	e := &Executor{
		driver: d,
		logger: logger.Get(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("component", "executor"), zap.String("driver", d.Name()))
	e.tracer = observability.NewOperationTracer(d.Name())
	return e, nil
}

// Driver returns the underlying driver
func (e *Executor) Driver() driver.Driver { return e.driver }

// Execute submits op through the driver's blocking call, parses the result set
// and returns it wrapped with execution metadata. Driver failures are returned
// as connection errors; parse failures abort with no partial result.
func Execute[R any](ctx context.Context, e *Executor, op Operation[R]) (*models.OperationResult[R], error) {
	c := newCall(e, op, pathSync)
	if err := op.Validate(); err != nil {
		c.reject(err)
		return nil, err
	}

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	ctx, err := c.submit(ctx)
	if err != nil {
		return nil, err
	}

	res, err := c.complete(e.driver.Execute(ctx, op.Query()))
	c.settle(err)
	return res, err
}

// ExecuteAsync submits op through the driver's non-blocking call and returns
// immediately. The parse runs once, when the driver's future completes, on the
// same path Execute uses. Cancelling the returned future before the result set
// arrives cancels the submission.
func ExecuteAsync[R any](ctx context.Context, e *Executor, op Operation[R]) *future.Future[*models.OperationResult[R]] {
	c := newCall(e, op, pathAsync)
	if err := op.Validate(); err != nil {
		c.reject(err)
		return future.Failed[*models.OperationResult[R]](err)
	}

	ctx, cancel := e.withTimeout(ctx)

	ctx, err := c.submit(ctx)
	if err != nil {
		cancel()
		return future.Failed[*models.OperationResult[R]](err)
	}

	out := future.Then(e.driver.ExecuteAsync(ctx, op.Query()),
		func(rs models.ResultSet, err error) (*models.OperationResult[R], error) {
			res, err := c.complete(rs, err)
			c.settle(err)
			return res, err
		})

	go func() {
		<-out.Done()
		cancel()
		if out.Cancelled() {
			_, err := out.Wait()
			c.settle(err)
		}
	}()
	return out
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

// call is the per-execution state of one operation.
type call[R any] struct {
	e     *Executor
	op    Operation[R]
	path  string
	kind  string
	state atomic.Int32
	timer *metrics.Timer
	done  func()
	span  *observability.Span
	log   *zap.Logger
}

func newCall[R any](e *Executor, op Operation[R], path string) *call[R] {
	kind := op.Kind().String()
	return &call[R]{
		e:    e,
		op:   op,
		path: path,
		kind: kind,
		log: e.logger.With(
			zap.String("operation", kind),
			zap.String("path", path),
		),
	}
}

func (c *call[R]) transition(to State) error {
	for {
		from := State(c.state.Load())
		if !from.canTransition(to) {
			return errors.Newf(errors.ErrorTypeValidation, "illegal execution transition %s -> %s", from, to).
				WithDetail("operation", c.kind)
		}
		if c.state.CompareAndSwap(int32(from), int32(to)) {
			if c.e.observer != nil {
				c.e.observer(c.kind, from, to)
			}
			return nil
		}
	}
}

func (c *call[R]) submit(ctx context.Context) (context.Context, error) {
	if err := c.transition(StateSubmitted); err != nil {
		return ctx, err
	}
	c.timer = metrics.NewTimer()
	c.done = metrics.TrackInFlight(c.path)

	ctx = context.WithValue(ctx, logger.OperationKey, c.kind)
	if ks := c.op.Query().Keyspace; ks != "" {
		ctx = context.WithValue(ctx, logger.KeyspaceKey, ks)
	}
	c.log = c.e.logger.With(logger.ContextFields(ctx)...).With(zap.String("path", c.path))

	ctx, c.span = c.e.tracer.Start(ctx, c.kind, c.path)
	if ks := c.op.Query().Keyspace; ks != "" {
		c.span.SetAttribute("db.name", ks)
	}

	c.log.Debug("operation submitted", zap.String("statement", c.op.Query().Statement))
	return ctx, nil
}

// complete is the single result path for both blocking and non-blocking
// execution.
func (c *call[R]) complete(rs models.ResultSet, err error) (*models.OperationResult[R], error) {
	if err != nil {
		return nil, relay(err)
	}
	if rs == nil {
		return nil, errors.New(errors.ErrorTypeConnection, "driver returned no result set")
	}

	result, err := c.op.Parse(rs)
	if err != nil {
		var typed *errors.Error
		if !errors.As(err, &typed) {
			err = errors.Wrap(err, errors.ErrorTypeInternal, "result parsing failed")
		}
		return nil, err
	}
	return models.NewOperationResult(result, rs.Info(), c.timer.Stop()), nil
}

// settle records the outcome of a submitted call. It runs once per call.
func (c *call[R]) settle(err error) {
	to := StateCompleted
	if err != nil {
		to = StateFailed
	}
	if terr := c.transition(to); terr != nil {
		c.log.Error("execution settled twice", zap.Error(terr))
		return
	}

	latency := c.timer.Stop()
	c.done()
	metrics.ObserveOperation(c.kind, c.path, statusOf(err), latency)
	c.span.End(err)

	if err != nil {
		c.log.Warn("operation failed", zap.Duration("latency", latency), zap.Error(err))
		return
	}
	c.log.Debug("operation completed", zap.Duration("latency", latency))
}

// reject fails a call that never reached the driver.
func (c *call[R]) reject(err error) {
	_ = c.transition(StateFailed)
	metrics.ObserveOperation(c.kind, c.path, statusOf(err), 0)
	c.log.Warn("operation rejected before submission", zap.Error(err))
}

// relay passes classified driver errors through unchanged and classifies the
// rest as connection errors.
func relay(err error) error {
	var typed *errors.Error
	if errors.As(err, &typed) {
		return err
	}
	return errors.Wrap(err, errors.ErrorTypeConnection, "query submission failed")
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.IsConnection(err):
		return metrics.StatusConnection
	case errors.IsMalformedRow(err):
		return metrics.StatusMalformedRow
	case errors.IsConfiguration(err):
		return metrics.StatusConfig
	case errors.IsType(err, errors.ErrorTypeCancelled):
		return metrics.StatusCancelled
	default:
		return metrics.StatusOther
	}
}
