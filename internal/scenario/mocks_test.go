package scenario

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"dbsmoke/internal/dbclient"
	"dbsmoke/internal/workdir"
	"dbsmoke/pkg/runtime"
	"dbsmoke/pkg/suite"
)

// MockRuntime is a mock implementation of the ContainerRuntime interface
type MockRuntime struct {
	*mock.Mock
}

func NewMockRuntime() *MockRuntime {
	return &MockRuntime{Mock: &mock.Mock{}}
}

func (m *MockRuntime) EnsureImage(ctx context.Context, image string) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *MockRuntime) Start(ctx context.Context, opts runtime.StartOptions) error {
	args := m.Called(ctx, opts)
	return args.Error(0)
}

func (m *MockRuntime) Stop(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockRuntime) Remove(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockRuntime) Status(ctx context.Context, name string) (runtime.Status, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(runtime.Status), args.Error(1)
}

func (m *MockRuntime) Logs(ctx context.Context, name string) (io.ReadCloser, error) {
	args := m.Called(ctx, name)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockQuerier is a mock implementation of the Querier interface
type MockQuerier struct {
	*mock.Mock
}

func NewMockQuerier() *MockQuerier {
	return &MockQuerier{Mock: &mock.Mock{}}
}

func (m *MockQuerier) Ping(ctx context.Context, creds dbclient.Credentials) error {
	args := m.Called(ctx, creds)
	return args.Error(0)
}

func (m *MockQuerier) SelectValue(ctx context.Context, creds dbclient.Credentials, query string, queryArgs ...any) (string, error) {
	args := m.Called(ctx, creds, query, queryArgs)
	return args.String(0), args.Error(1)
}

func (m *MockQuerier) Exec(ctx context.Context, creds dbclient.Credentials, query string, queryArgs ...any) error {
	args := m.Called(ctx, creds, query, queryArgs)
	return args.Error(0)
}

// testSuite returns a populated suite with a tight readiness budget so the
// polling paths finish in milliseconds.
func testSuite() *suite.Suite {
	s := &suite.Suite{}
	s.APIVersion = "v1"
	s.Kind = "SmokeSuite"
	s.Metadata.Name = "scenario-test"
	s.Spec.Engine = "docker"
	s.Spec.Image.Repository = "mysql"
	s.Spec.Image.Tag = "8.0"
	s.Spec.Container.Name = "dbsmoke-test-db"
	s.Spec.Container.Port = 3306
	s.Spec.Container.HostIP = "127.0.0.1"
	s.Spec.Container.HostPort = 13306
	s.Spec.Database.RootPassword = "root-secret"
	s.Spec.Database.Name = "appdb"
	s.Spec.Database.User = "appuser"
	s.Spec.Database.Password = "app-secret"
	s.Spec.Database.RootHost = "203.0.113.7"
	s.Spec.Readiness.Interval = time.Millisecond
	s.Spec.Readiness.MaxAttempts = 3
	return s
}

func testEnv(t *testing.T, rt *MockRuntime, db *MockQuerier) *Env {
	t.Helper()

	wd, err := workdir.Open(filepath.Join(t.TempDir(), "workspace"))
	if err != nil {
		t.Fatalf("Failed to open workdir: %s", err)
	}

	return &Env{
		Suite:   testSuite(),
		Runtime: rt,
		DB:      db,
		Workdir: wd,
	}
}
