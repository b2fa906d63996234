// Package scenario defines the smoke-test scenarios and the runner that
// executes them. Each scenario configures the database image through its
// environment sink, starts a fresh container, waits for readiness, and
// asserts observable behavior. The runner guarantees the container is gone
// again when a scenario returns, whatever the outcome.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"

	"dbsmoke/internal/dbclient"
	"dbsmoke/internal/workdir"
	"dbsmoke/pkg/runtime"
	"dbsmoke/pkg/suite"
)

// teardownTimeout bounds the forced cleanup after each scenario. It runs on
// a fresh context so cleanup still happens when the run itself was canceled.
const teardownTimeout = 60 * time.Second

// Querier is the slice of the database client scenarios need. Credentials
// travel per call because several scenarios switch identities mid-flight,
// including one whose password only exists after scraping the logs.
type Querier interface {
	Ping(ctx context.Context, creds dbclient.Credentials) error
	SelectValue(ctx context.Context, creds dbclient.Credentials, query string, args ...any) (string, error)
	Exec(ctx context.Context, creds dbclient.Credentials, query string, args ...any) error
}

// Env bundles the suite configuration and the collaborators a scenario runs
// against.
type Env struct {
	Suite   *suite.Suite
	Runtime runtime.ContainerRuntime
	DB      Querier
	Workdir *workdir.Workdir
}

// Scenario is one self-contained configure, start, wait, assert cycle.
type Scenario struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env) error
}

// Runner executes scenarios one at a time against a shared environment.
type Runner struct {
	env *Env
}

func NewRunner(env *Env) *Runner {
	return &Runner{env: env}
}

// Run executes a single scenario and then tears down the suite's container.
// Teardown runs on every exit path; when both the scenario and the teardown
// fail, both errors are reported.
func (r *Runner) Run(ctx context.Context, sc Scenario) (err error) {
	name := r.env.Suite.Spec.Container.Name
	slog.Info("Running scenario", "scenario", sc.Name, "container", name)

	defer func() {
		if teardownErr := r.teardown(name); teardownErr != nil {
			err = multierr.Append(err, teardownErr)
		}
	}()

	return sc.Run(ctx, r.env)
}

// teardown force-removes the container and verifies it is actually gone, so
// the next scenario starts from a clean slate.
func (r *Runner) teardown(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	if err := r.env.Runtime.Remove(ctx, name); err != nil {
		return fmt.Errorf("teardown of container %s failed: %w", name, err)
	}

	status, err := r.env.Runtime.Status(ctx, name)
	if err != nil {
		return fmt.Errorf("teardown verification for container %s failed: %w", name, err)
	}
	if status != runtime.StatusAbsent {
		return fmt.Errorf("container %s is still %s after teardown", name, status)
	}

	slog.Info("Scenario teardown complete", "container", name)
	return nil
}
