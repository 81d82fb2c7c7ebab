// Package testutil provides testing utilities for widecol
package testutil

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/widecol/pkg/logger"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// UseTestLogger installs a test logger as the global logger for the duration
// of the test and returns it.
func UseTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	prev := logger.Get()
	l := zaptest.NewLogger(t)
	logger.Set(l)
	t.Cleanup(func() { logger.Set(prev) })
	return l
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// AssertEventually asserts that a condition becomes true within the specified timeout.
// It checks the condition every 10ms until it succeeds or the timeout expires.
func AssertEventually(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
