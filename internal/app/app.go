package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dbsmoke/internal/dbclient"
	errs "dbsmoke/internal/errors"
	"dbsmoke/internal/parser"
	"dbsmoke/internal/runtime"
	"dbsmoke/internal/scenario"
	"dbsmoke/internal/ui"
	"dbsmoke/internal/workdir"
	runtimePkg "dbsmoke/pkg/runtime"
)

const (
	// Color codes for console output
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
)

// cleanupTimeout bounds the container removal performed by Cleanup.
const cleanupTimeout = 60 * time.Second

// Run executes the smoke suite against the configured image. It implements
// the Facade pattern over all internal components, with resume capability:
// scenarios that passed in an interrupted run are skipped on the next one.
// An explicit scenario selection runs exactly those scenarios and leaves the
// state file alone.
func Run(suitePath string, only []string, retainState bool) error {
	slog.Info("Starting smoke run", "suitePath", suitePath, "scenarios", only)

	suite, err := parser.Parse(suitePath)
	if err != nil {
		return errs.NewSuiteInvalidError(
			"Failed to parse the suite file",
			err.Error(),
			"Check the suite file for syntax errors and missing fields",
			fmt.Errorf("suite parsing failed: %w", err),
		)
	}
	slog.Info("Suite parsed successfully", "name", suite.Metadata.Name, "image", suite.Spec.Image.Ref())

	scenarios, err := selectScenarios(only)
	if err != nil {
		return err
	}

	// Load existing state or create new state. Explicit selections bypass
	// the state machinery entirely.
	useState := len(only) == 0
	var state *RunState
	if useState {
		state, err = loadState()
		if err != nil {
			return fmt.Errorf("failed to load run state: %w", err)
		}

		if state == nil {
			runID := uuid.New().String()
			state = newState(suitePath, runID)
			slog.Info("Starting new smoke run", "runId", runID, "suitePath", suitePath)
		} else {
			fmt.Printf("%s📋 State file found. Resuming run %s: %d scenario(s) already passed%s\n",
				ColorYellow, state.RunID, len(state.PassedScenarios), ColorReset)
			slog.Info("Resuming smoke run", "runId", state.RunID, "alreadyPassed", len(state.PassedScenarios))
			fmt.Println()
		}
	}

	wd, err := workdir.Open(suite.Spec.Workspace.Dir)
	if err != nil {
		return fmt.Errorf("workspace preparation failed: %w", err)
	}

	factory := NewEngineFactory()
	rt, err := factory.GetRuntime(suite.Spec.Engine)
	if err != nil {
		return fmt.Errorf("container engine unavailable: %w", err)
	}

	env := &scenario.Env{
		Suite:   suite,
		Runtime: rt,
		DB:      dbclient.New(suite.Spec.Container.HostIP, suite.Spec.Container.HostPort),
		Workdir: wd,
	}
	runner := scenario.NewRunner(env)
	console := ui.NewConsole()

	fmt.Printf("%s🧪 Running %d scenario(s) against %s%s\n", ColorCyan, len(scenarios), suite.Spec.Image.Ref(), ColorReset)
	fmt.Println()

	ctx := context.Background()
	start := time.Now()
	total := len(scenarios)
	passed := 0

	for i, sc := range scenarios {
		if useState && state.hasPassed(sc.Name) {
			console.PrintScenarioSkipped(sc.Name)
			passed++
			continue
		}

		fmt.Printf("%s🧪 Scenario %d/%d: %s%s\n", ColorCyan, i+1, total, sc.Name, ColorReset)
		fmt.Printf("%s   %s%s\n", ColorWhite, sc.Description, ColorReset)

		scStart := time.Now()
		runErr := runner.Run(ctx, sc)
		console.PrintScenarioResult(sc.Name, runErr == nil, time.Since(scStart))

		if runErr != nil {
			// State already records every earlier pass, so a rerun resumes
			// right here.
			return fmt.Errorf("scenario %s failed: %w", sc.Name, runErr)
		}

		passed++
		if useState {
			state.markPassed(sc.Name)
			if err := saveState(state); err != nil {
				return fmt.Errorf("failed to save state after scenario %s: %w", sc.Name, err)
			}
		}
		fmt.Println()
	}

	console.PrintRunSummary(passed, total, time.Since(start))
	fmt.Println()

	if useState {
		if retainState {
			// Save final state for auditing purposes
			if err := saveState(state); err != nil {
				slog.Warn("Failed to save final state", "error", err)
			} else {
				slog.Info("State file retained for auditing", "file", StateFileName)
			}
		} else {
			// Remove state file on successful completion
			if err := removeStateFile(); err != nil {
				slog.Warn("Failed to clean up state file", "error", err)
			}
		}
	}

	if suite.Spec.Workspace.Retain {
		slog.Info("Workspace retained", "dir", wd.Root())
	} else {
		if err := wd.Remove(); err != nil {
			slog.Warn("Failed to clean up workspace", "error", err)
		}
	}

	fmt.Printf("%s🎉 ALL SCENARIOS PASSED!%s\n", ColorGreen, ColorReset)
	fmt.Printf("%s✨ Image '%s' survived the smoke suite.%s\n", ColorWhite, suite.Spec.Image.Ref(), ColorReset)

	slog.Info("Smoke run completed successfully", "image", suite.Spec.Image.Ref(), "scenarios", total)
	return nil
}

// Cleanup removes everything a run can leave behind: the suite's container,
// the workspace directory, and the state file. It is safe to call when
// nothing is left.
func Cleanup(suitePath string) error {
	slog.Info("Starting cleanup", "suitePath", suitePath)

	suite, err := parser.Parse(suitePath)
	if err != nil {
		return errs.NewSuiteInvalidError(
			"Failed to parse the suite file",
			err.Error(),
			"Check the suite file for syntax errors and missing fields",
			fmt.Errorf("suite parsing failed: %w", err),
		)
	}

	factory := NewEngineFactory()
	rt, err := factory.GetRuntime(suite.Spec.Engine)
	if err != nil {
		return fmt.Errorf("container engine unavailable: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	name := suite.Spec.Container.Name
	if err := rt.Remove(ctx, name); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", name, err)
	}

	status, err := rt.Status(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to verify removal of container %s: %w", name, err)
	}
	if status != runtimePkg.StatusAbsent {
		return fmt.Errorf("container %s is still %s after cleanup", name, status)
	}
	fmt.Printf("%s✅ Container %s removed%s\n", ColorGreen, name, ColorReset)

	wd, err := workdir.Open(suite.Spec.Workspace.Dir)
	if err != nil {
		slog.Warn("Failed to open workspace for cleanup", "dir", suite.Spec.Workspace.Dir, "error", err)
	} else if err := wd.Remove(); err != nil {
		slog.Warn("Failed to remove workspace", "dir", wd.Root(), "error", err)
	} else {
		fmt.Printf("%s✅ Workspace %s removed%s\n", ColorGreen, wd.Root(), ColorReset)
	}

	if err := removeStateFile(); err != nil {
		slog.Warn("Failed to remove state file", "error", err)
	} else {
		fmt.Printf("%s✅ Run state cleared%s\n", ColorGreen, ColorReset)
	}

	slog.Info("Cleanup completed", "container", name)
	return nil
}

// selectScenarios resolves the requested scenario names, defaulting to the
// full built-in set.
func selectScenarios(only []string) ([]scenario.Scenario, error) {
	if len(only) == 0 {
		return scenario.Builtins(), nil
	}

	selected := make([]scenario.Scenario, 0, len(only))
	for _, name := range only {
		sc, ok := scenario.ByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown scenario %q (run 'dbsmoke list' to see the available scenarios)", name)
		}
		selected = append(selected, sc)
	}
	return selected, nil
}

// ValidatePrerequisites checks that all required external dependencies are available.
func ValidatePrerequisites() error {
	slog.Info("Validating dbsmoke prerequisites")

	// Check if Docker is available (required for every scenario)
	if _, err := runtime.NewDockerRuntime(); err != nil {
		return fmt.Errorf("Docker prerequisite check failed: %w", err)
	}

	slog.Info("All prerequisites validated successfully")
	return nil
}
