package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"dbsmoke/internal/dbclient"
	"dbsmoke/internal/envfile"
	errs "dbsmoke/internal/errors"
	"dbsmoke/internal/logscan"
	"dbsmoke/internal/waitfor"
	"dbsmoke/pkg/runtime"
)

// Environment variables the database image reads on first initialization.
const (
	envRootPassword = "MYSQL_ROOT_PASSWORD"
	envDatabase     = "MYSQL_DATABASE"
	envUser         = "MYSQL_USER"
	envPassword     = "MYSQL_PASSWORD"
	envAllowEmpty   = "MYSQL_ALLOW_EMPTY_PASSWORD"
	envRandomRoot   = "MYSQL_RANDOM_ROOT_PASSWORD"
	envRootHost     = "MYSQL_ROOT_HOST"
	envSkipTzinfo   = "MYSQL_INITDB_SKIP_TZINFO"
)

// readyMarker appears in the server log once mysqld is up. The entrypoint's
// init-phase server prints it too, so log readiness is only trusted together
// with a probe the init-phase server cannot satisfy.
const readyMarker = "ready for connections"

// generatedPasswordPrefix precedes the root password the entrypoint prints
// when it is asked to generate one.
const generatedPasswordPrefix = "GENERATED ROOT PASSWORD"

// launch writes config to the scenario's environment sink and starts a fresh
// container reading from it. Any leftover container holding the suite's name
// is removed first so the name is free.
func launch(ctx context.Context, env *Env, config map[string]string, dataDir string) error {
	spec := env.Suite.Spec

	sink := env.Workdir.EnvFilePath()
	if err := envfile.Write(sink, config); err != nil {
		return errs.NewFileSystemError(
			"Failed to write the scenario environment sink",
			err.Error(),
			"Check permissions on the workspace directory",
			err,
		)
	}

	if err := env.Runtime.Remove(ctx, spec.Container.Name); err != nil {
		slog.Warn("Pre-start cleanup failed", "container", spec.Container.Name, "error", err)
	}

	if err := env.Runtime.EnsureImage(ctx, spec.Image.Ref()); err != nil {
		return errs.NewSetupError(
			fmt.Sprintf("Image %s is not available", spec.Image.Ref()),
			err.Error(),
			"Verify the image reference and registry connectivity",
			err,
		)
	}

	opts := runtime.StartOptions{
		Name:  spec.Container.Name,
		Image: spec.Image.Ref(),
		Port: runtime.PortBinding{
			HostIP:        spec.Container.HostIP,
			HostPort:      spec.Container.HostPort,
			ContainerPort: spec.Container.Port,
		},
		EnvFile: sink,
		DataDir: dataDir,
	}
	if err := env.Runtime.Start(ctx, opts); err != nil {
		return errs.NewSetupError(
			fmt.Sprintf("Failed to start container %s", spec.Container.Name),
			err.Error(),
			"Check the Docker daemon and whether the host port is already taken",
			err,
		)
	}

	return nil
}

// pollOptions translates the suite's readiness budget into waitfor options.
func pollOptions(env *Env) waitfor.Options {
	return waitfor.Options{
		Interval:    env.Suite.Spec.Readiness.Interval,
		MaxAttempts: env.Suite.Spec.Readiness.MaxAttempts,
	}
}

// liveness returns a permanent error when the container is no longer
// running. Readiness probes call it first on every attempt so a crashed
// container fails the scenario immediately instead of burning the poll
// budget.
func liveness(ctx context.Context, env *Env) error {
	name := env.Suite.Spec.Container.Name
	status, err := env.Runtime.Status(ctx, name)
	if err != nil {
		return errs.NewRuntimeError(
			fmt.Sprintf("Failed to inspect container %s", name),
			err.Error(),
			"Check that the Docker daemon is still reachable",
			err,
		)
	}
	if status != runtime.StatusRunning {
		return errs.NewSetupError(
			fmt.Sprintf("Container %s is %s instead of running", name, status),
			"the container stopped before the service became ready",
			fmt.Sprintf("Run 'docker logs %s' to see why it exited", name),
			fmt.Errorf("container %s entered state %s while waiting for readiness", name, status),
		)
	}
	return nil
}

// classifyWait turns poll exhaustion into a readiness timeout failure.
// Permanent probe errors pass through unchanged; they are already classified
// by the probe that raised them.
func classifyWait(err error, what string) error {
	if err == nil {
		return nil
	}
	var timeout *waitfor.TimeoutError
	if errors.As(err, &timeout) {
		return errs.NewTimeoutError(
			fmt.Sprintf("Timed out waiting for %s", what),
			timeout.Error(),
			"Increase readiness.maxAttempts or readiness.interval in the suite file",
			err,
		)
	}
	return err
}

// awaitReady polls until the server accepts an authenticated connection with
// the given credentials.
func awaitReady(ctx context.Context, env *Env, creds dbclient.Credentials) error {
	slog.Info("Waiting for database to accept connections", "user", creds.User)

	probe := func(ctx context.Context) (bool, error) {
		if err := liveness(ctx, env); err != nil {
			return false, err
		}
		if err := env.DB.Ping(ctx, creds); err != nil {
			return false, nil
		}
		return true, nil
	}

	return classifyWait(waitfor.Until(ctx, pollOptions(env), probe), "database readiness")
}

// awaitLogLine polls a snapshot of the container logs until a line contains
// marker. Used when the scenario's configuration makes the server
// unreachable for the harness on purpose.
func awaitLogLine(ctx context.Context, env *Env, marker string) error {
	name := env.Suite.Spec.Container.Name
	slog.Info("Waiting for log line", "container", name, "marker", marker)

	probe := func(ctx context.Context) (bool, error) {
		if err := liveness(ctx, env); err != nil {
			return false, err
		}

		reader, err := env.Runtime.Logs(ctx, name)
		if err != nil {
			return false, errs.NewRuntimeError(
				fmt.Sprintf("Failed to read logs of container %s", name),
				err.Error(),
				"Check that the Docker daemon is still reachable",
				err,
			)
		}
		defer reader.Close()

		return logscan.ContainsLine(reader, marker)
	}

	return classifyWait(waitfor.Until(ctx, pollOptions(env), probe), fmt.Sprintf("log line %q", marker))
}

// awaitGreeting polls until a TCP connection to the published port receives
// the server's opening bytes. The host-side port proxy accepts connections
// as soon as the container starts, so a successful dial alone proves
// nothing; only the server speaking first does. The init-phase server runs
// without networking and can never satisfy this probe.
func awaitGreeting(ctx context.Context, env *Env) error {
	spec := env.Suite.Spec
	addr := net.JoinHostPort(spec.Container.HostIP, strconv.Itoa(spec.Container.HostPort))
	slog.Info("Waiting for server greeting", "address", addr)

	probe := func(ctx context.Context) (bool, error) {
		if err := liveness(ctx, env); err != nil {
			return false, err
		}

		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false, nil
		}
		defer conn.Close()

		if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
			return false, nil
		}
		buf := make([]byte, 1)
		if _, err := conn.Read(buf); err != nil {
			return false, nil
		}
		return true, nil
	}

	return classifyWait(waitfor.Until(ctx, pollOptions(env), probe), fmt.Sprintf("server greeting on %s", addr))
}

// scrapeLogValue polls the logs until a line containing prefix appears and
// returns the value after it. Exhausting the budget is an extraction
// failure: the image never printed what the scenario needs.
func scrapeLogValue(ctx context.Context, env *Env, prefix string) (string, error) {
	name := env.Suite.Spec.Container.Name
	slog.Info("Scraping container logs", "container", name, "prefix", prefix)

	var value string
	probe := func(ctx context.Context) (bool, error) {
		if err := liveness(ctx, env); err != nil {
			return false, err
		}

		reader, err := env.Runtime.Logs(ctx, name)
		if err != nil {
			return false, errs.NewRuntimeError(
				fmt.Sprintf("Failed to read logs of container %s", name),
				err.Error(),
				"Check that the Docker daemon is still reachable",
				err,
			)
		}
		defer reader.Close()

		v, found, err := logscan.FirstWithPrefix(reader, prefix)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
		value = v
		return true, nil
	}

	if err := waitfor.Until(ctx, pollOptions(env), probe); err != nil {
		var timeout *waitfor.TimeoutError
		if errors.As(err, &timeout) {
			return "", errs.NewExtractionError(
				fmt.Sprintf("Log line %q never appeared", prefix),
				timeout.Error(),
				"The image may not print this value under the current configuration",
				err,
			)
		}
		return "", err
	}

	return value, nil
}
