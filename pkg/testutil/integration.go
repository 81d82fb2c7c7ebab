package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/widecol/pkg/json"
)

// IntegrationTestSuite provides base functionality for tests that talk to a
// real database.
type IntegrationTestSuite struct {
	suite.Suite
	ctx       context.Context
	cancel    context.CancelFunc
	tempDir   string
	startTime time.Time
}

// SetupSuite runs before all tests in the suite
func (s *IntegrationTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 2*time.Minute)
	s.startTime = time.Now()
	s.tempDir = s.T().TempDir()
}

// TearDownSuite runs after all tests in the suite
func (s *IntegrationTestSuite) TearDownSuite() {
	s.cancel()
	s.T().Logf("integration suite completed in %v", time.Since(s.startTime))
}

// Context returns the suite context
func (s *IntegrationTestSuite) Context() context.Context {
	return s.ctx
}

// TempDir returns the temporary directory path
func (s *IntegrationTestSuite) TempDir() string {
	return s.tempDir
}

// IntegrationTest skips t in short mode.
func IntegrationTest(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDSN returns the value of the environment variable name, skipping t
// when it is unset.
func RequireDSN(t *testing.T, name string) string {
	t.Helper()
	IntegrationTest(t)
	dsn := os.Getenv(name)
	if dsn == "" {
		t.Skipf("%s not set", name)
	}
	return dsn
}

// Fixture is the JSON document understood by the memory driver.
type Fixture struct {
	Host      string                 `json:"host,omitempty"`
	Default   [][]*string            `json:"default,omitempty"`
	Responses map[string][][]*string `json:"responses,omitempty"`
}

// Cols builds a fixture row of non-null text values.
func Cols(values ...string) []*string {
	out := make([]*string, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

// WriteFixture writes fx to a file under a fresh temp directory and returns its path.
func WriteFixture(t *testing.T, fx Fixture) string {
	t.Helper()
	data, err := json.Marshal(fx)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
