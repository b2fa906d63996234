package scenario

import (
	"context"
	"fmt"
	"log/slog"

	"dbsmoke/internal/dbclient"
	errs "dbsmoke/internal/errors"
	"dbsmoke/internal/workdir"
)

// Builtins returns the scenario set in execution order. Each scenario is
// self-contained; the order only affects reporting.
func Builtins() []Scenario {
	return []Scenario{
		rootPasswordScenario(),
		allowEmptyPasswordScenario(),
		databaseAndUserScenario(),
		randomRootPasswordScenario(),
		rootHostRestrictionScenario(),
		timezoneDataScenario(),
		skipTimezoneDataScenario(),
		volumePersistenceScenario(),
	}
}

// ByName returns the named built-in scenario.
func ByName(name string) (Scenario, bool) {
	for _, sc := range Builtins() {
		if sc.Name == name {
			return sc, true
		}
	}
	return Scenario{}, false
}

// rootCreds authenticates as root with the suite's configured password.
func rootCreds(env *Env) dbclient.Credentials {
	return dbclient.Credentials{User: "root", Password: env.Suite.Spec.Database.RootPassword}
}

// withSkip adds the timezone-skip directive when the suite requests it,
// which shaves several seconds off every initialization.
func withSkip(env *Env, config map[string]string) map[string]string {
	if env.Suite.Spec.Database.SkipTzinfo {
		config[envSkipTzinfo] = "1"
	}
	return config
}

// queryFailed classifies an unexpected query error.
func queryFailed(what string, err error) error {
	return errs.NewQueryError(
		fmt.Sprintf("%s failed", what),
		err.Error(),
		"Check the server logs for initialization errors",
		err,
	)
}

func rootPasswordScenario() Scenario {
	return Scenario{
		Name:        "root-password",
		Description: "Configured root password authenticates and answers a trivial query",
		Run: func(ctx context.Context, env *Env) error {
			config := withSkip(env, map[string]string{
				envRootPassword: env.Suite.Spec.Database.RootPassword,
			})
			if err := launch(ctx, env, config, ""); err != nil {
				return err
			}

			creds := rootCreds(env)
			if err := awaitReady(ctx, env, creds); err != nil {
				return err
			}

			got, err := env.DB.SelectValue(ctx, creds, "SELECT 1")
			if err != nil {
				return queryFailed("Trivial query as root", err)
			}
			return Equals("trivial query result", got, "1")
		},
	}
}

func allowEmptyPasswordScenario() Scenario {
	return Scenario{
		Name:        "allow-empty-password",
		Description: "Image started with an explicitly empty root password accepts passwordless root",
		Run: func(ctx context.Context, env *Env) error {
			config := withSkip(env, map[string]string{
				envAllowEmpty: "yes",
			})
			if err := launch(ctx, env, config, ""); err != nil {
				return err
			}

			creds := dbclient.Credentials{User: "root"}
			if err := awaitReady(ctx, env, creds); err != nil {
				return err
			}

			got, err := env.DB.SelectValue(ctx, creds, "SELECT 1")
			if err != nil {
				return queryFailed("Passwordless root query", err)
			}
			return Equals("trivial query result", got, "1")
		},
	}
}

func databaseAndUserScenario() Scenario {
	return Scenario{
		Name:        "database-and-user",
		Description: "Initialization creates the requested database and a user that can use it",
		Run: func(ctx context.Context, env *Env) error {
			db := env.Suite.Spec.Database
			config := withSkip(env, map[string]string{
				envRootPassword: db.RootPassword,
				envDatabase:     db.Name,
				envUser:         db.User,
				envPassword:     db.Password,
			})
			if err := launch(ctx, env, config, ""); err != nil {
				return err
			}

			// The created user only has rights on the created database, so
			// readiness is probed with exactly that identity.
			userCreds := dbclient.Credentials{User: db.User, Password: db.Password, Database: db.Name}
			if err := awaitReady(ctx, env, userCreds); err != nil {
				return err
			}

			got, err := env.DB.SelectValue(ctx, userCreds, "SELECT DATABASE()")
			if err != nil {
				return queryFailed("Current-database query as the created user", err)
			}
			if err := Equals("current database for the created user", got, db.Name); err != nil {
				return err
			}

			got, err = env.DB.SelectValue(ctx, rootCreds(env),
				"SELECT SCHEMA_NAME FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?", db.Name)
			if err != nil {
				return queryFailed("Schema lookup as root", err)
			}
			if err := Equals("schema visible to root", got, db.Name); err != nil {
				return err
			}

			// The user must be able to write, not just connect.
			if err := env.DB.Exec(ctx, userCreds,
				"CREATE TABLE smoke_probe (id INT PRIMARY KEY)"); err != nil {
				return queryFailed("Table creation as the created user", err)
			}
			if err := env.DB.Exec(ctx, userCreds,
				"INSERT INTO smoke_probe (id) VALUES (1)"); err != nil {
				return queryFailed("Row insertion as the created user", err)
			}
			got, err = env.DB.SelectValue(ctx, userCreds, "SELECT COUNT(*) FROM smoke_probe")
			if err != nil {
				return queryFailed("Row count as the created user", err)
			}
			return Equals("probe table row count", got, "1")
		},
	}
}

func randomRootPasswordScenario() Scenario {
	return Scenario{
		Name:        "random-root-password",
		Description: "Entrypoint generates a root password, prints it, and it authenticates",
		Run: func(ctx context.Context, env *Env) error {
			config := withSkip(env, map[string]string{
				envRandomRoot: "yes",
			})
			if err := launch(ctx, env, config, ""); err != nil {
				return err
			}

			password, err := scrapeLogValue(ctx, env, generatedPasswordPrefix)
			if err != nil {
				return err
			}
			if err := NonEmpty("generated root password", password); err != nil {
				return err
			}
			slog.Info("Scraped generated root password from logs")

			creds := dbclient.Credentials{User: "root", Password: password}
			if err := awaitReady(ctx, env, creds); err != nil {
				return err
			}

			got, err := env.DB.SelectValue(ctx, creds, "SELECT 1")
			if err != nil {
				return queryFailed("Trivial query with the generated password", err)
			}
			return Equals("trivial query result", got, "1")
		},
	}
}

func rootHostRestrictionScenario() Scenario {
	return Scenario{
		Name:        "root-host-restriction",
		Description: "Root restricted to a non-matching host cannot connect from the harness",
		Run: func(ctx context.Context, env *Env) error {
			db := env.Suite.Spec.Database
			config := withSkip(env, map[string]string{
				envRootPassword: db.RootPassword,
				envRootHost:     db.RootHost,
			})
			if err := launch(ctx, env, config, ""); err != nil {
				return err
			}

			// Root cannot connect here by construction, so readiness is
			// log-based, backed by the greeting probe to rule out the
			// init-phase server's identical log line.
			if err := awaitLogLine(ctx, env, readyMarker); err != nil {
				return err
			}
			if err := awaitGreeting(ctx, env); err != nil {
				return err
			}

			_, qErr := env.DB.SelectValue(ctx, rootCreds(env), "SELECT 1")
			if qErr != nil {
				if dbclient.IsAccessDenied(qErr) {
					slog.Info("Root connection rejected by host restriction", "error", qErr)
				} else {
					slog.Warn("Root connection failed for a reason other than access denial", "error", qErr)
				}
			}
			return MustFail("root query from a disallowed host", qErr)
		},
	}
}

func timezoneDataScenario() Scenario {
	return Scenario{
		Name:        "timezone-data",
		Description: "Default initialization loads the timezone tables",
		Run: func(ctx context.Context, env *Env) error {
			config := map[string]string{
				envRootPassword: env.Suite.Spec.Database.RootPassword,
			}
			if err := launch(ctx, env, config, ""); err != nil {
				return err
			}

			creds := rootCreds(env)
			if err := awaitReady(ctx, env, creds); err != nil {
				return err
			}

			got, err := env.DB.SelectValue(ctx, creds, "SELECT COUNT(*) FROM mysql.time_zone")
			if err != nil {
				return queryFailed("Timezone table count", err)
			}
			return NotEquals("timezone table row count", got, "0")
		},
	}
}

func skipTimezoneDataScenario() Scenario {
	return Scenario{
		Name:        "skip-timezone-data",
		Description: "Timezone-skip directive leaves the timezone tables empty",
		Run: func(ctx context.Context, env *Env) error {
			config := map[string]string{
				envRootPassword: env.Suite.Spec.Database.RootPassword,
				envSkipTzinfo:   "1",
			}
			if err := launch(ctx, env, config, ""); err != nil {
				return err
			}

			creds := rootCreds(env)
			if err := awaitReady(ctx, env, creds); err != nil {
				return err
			}

			got, err := env.DB.SelectValue(ctx, creds, "SELECT COUNT(*) FROM mysql.time_zone")
			if err != nil {
				return queryFailed("Timezone table count", err)
			}
			return Equals("timezone table row count", got, "0")
		},
	}
}

func volumePersistenceScenario() Scenario {
	return Scenario{
		Name:        "volume-persistence",
		Description: "Data written before a container is destroyed survives into a replacement",
		Run: func(ctx context.Context, env *Env) error {
			db := env.Suite.Spec.Database
			dataDir, err := persistenceDataDir(env, "volume-persistence")
			if err != nil {
				return err
			}

			config := withSkip(env, map[string]string{
				envRootPassword: db.RootPassword,
				envDatabase:     db.Name,
			})
			if err := launch(ctx, env, config, dataDir); err != nil {
				return err
			}

			creds := dbclient.Credentials{User: "root", Password: db.RootPassword, Database: db.Name}
			if err := awaitReady(ctx, env, creds); err != nil {
				return err
			}

			// First lifecycle leaves a marker row behind.
			if err := env.DB.Exec(ctx, creds,
				"CREATE TABLE persistence_probe (marker VARCHAR(64) NOT NULL)"); err != nil {
				return queryFailed("Marker table creation", err)
			}
			if err := env.DB.Exec(ctx, creds,
				"INSERT INTO persistence_probe (marker) VALUES (?)", "survived-restart"); err != nil {
				return queryFailed("Marker row insertion", err)
			}

			name := env.Suite.Spec.Container.Name
			slog.Info("Destroying container to test persistence", "container", name)
			if err := env.Runtime.Stop(ctx, name); err != nil {
				return errs.NewRuntimeError(
					fmt.Sprintf("Failed to stop container %s between lifecycles", name),
					err.Error(),
					"Check that the Docker daemon is still reachable",
					err,
				)
			}
			if err := env.Runtime.Remove(ctx, name); err != nil {
				return errs.NewRuntimeError(
					fmt.Sprintf("Failed to remove container %s between lifecycles", name),
					err.Error(),
					"Check that the Docker daemon is still reachable",
					err,
				)
			}

			// Second lifecycle mounts the same data directory; the image
			// must skip initialization and serve the existing state.
			if err := launch(ctx, env, config, dataDir); err != nil {
				return err
			}
			if err := awaitReady(ctx, env, creds); err != nil {
				return err
			}

			got, err := env.DB.SelectValue(ctx, creds,
				"SELECT marker FROM persistence_probe LIMIT 1")
			if err != nil {
				return queryFailed("Marker row lookup after replacement", err)
			}
			return Equals("persistence marker", got, "survived-restart")
		},
	}
}

// persistenceDataDir picks the host directory mounted as the database data
// directory: external storage from the suite when configured, a workspace
// scratch directory otherwise. Either way it starts empty.
func persistenceDataDir(env *Env, scenarioName string) (string, error) {
	external := env.Suite.Spec.Database.DataDir

	var (
		dir string
		err error
	)
	if external != "" {
		dir, err = workdir.FreshDir(external)
	} else {
		dir, err = env.Workdir.FreshDataDir(scenarioName)
	}
	if err != nil {
		return "", errs.NewFileSystemError(
			"Failed to prepare the persistence data directory",
			err.Error(),
			"Check permissions on the workspace and data directories",
			err,
		)
	}
	return dir, nil
}
