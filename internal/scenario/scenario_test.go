package scenario

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"dbsmoke/pkg/runtime"
)

func noopScenario(runErr error) Scenario {
	return Scenario{
		Name:        "noop",
		Description: "does nothing",
		Run: func(ctx context.Context, env *Env) error {
			return runErr
		},
	}
}

func TestRunner_Run_TeardownAfterSuccess(t *testing.T) {
	rt := NewMockRuntime()
	rt.On("Remove", mock.Anything, "dbsmoke-test-db").Return(nil).Once()
	rt.On("Status", mock.Anything, "dbsmoke-test-db").Return(runtime.StatusAbsent, nil).Once()

	runner := NewRunner(testEnv(t, rt, NewMockQuerier()))

	if err := runner.Run(context.Background(), noopScenario(nil)); err != nil {
		t.Errorf("Unexpected error: %s", err)
	}

	rt.AssertExpectations(t)
}

func TestRunner_Run_TeardownAfterFailure(t *testing.T) {
	rt := NewMockRuntime()
	rt.On("Remove", mock.Anything, "dbsmoke-test-db").Return(nil).Once()
	rt.On("Status", mock.Anything, "dbsmoke-test-db").Return(runtime.StatusAbsent, nil).Once()

	runner := NewRunner(testEnv(t, rt, NewMockQuerier()))

	scErr := errors.New("the assertion went sideways")
	err := runner.Run(context.Background(), noopScenario(scErr))
	if err == nil {
		t.Fatal("Expected the scenario error to surface, got nil")
	}
	if !errors.Is(err, scErr) {
		t.Errorf("Expected error to wrap the scenario error, got: %s", err)
	}

	rt.AssertExpectations(t)
}

func TestRunner_Run_CombinesScenarioAndTeardownErrors(t *testing.T) {
	rt := NewMockRuntime()
	rt.On("Remove", mock.Anything, "dbsmoke-test-db").Return(errors.New("daemon went away")).Once()

	runner := NewRunner(testEnv(t, rt, NewMockQuerier()))

	scErr := errors.New("the assertion went sideways")
	err := runner.Run(context.Background(), noopScenario(scErr))
	if err == nil {
		t.Fatal("Expected combined errors, got nil")
	}
	if !errors.Is(err, scErr) {
		t.Errorf("Expected the scenario error to survive, got: %s", err)
	}
	if !strings.Contains(err.Error(), "daemon went away") {
		t.Errorf("Expected the teardown error to survive, got: %s", err)
	}

	rt.AssertExpectations(t)
}

func TestRunner_Run_TeardownErrorOnSuccess(t *testing.T) {
	rt := NewMockRuntime()
	rt.On("Remove", mock.Anything, "dbsmoke-test-db").Return(errors.New("daemon went away")).Once()

	runner := NewRunner(testEnv(t, rt, NewMockQuerier()))

	err := runner.Run(context.Background(), noopScenario(nil))
	if err == nil {
		t.Fatal("Expected teardown failure to fail the run, got nil")
	}
	if !strings.Contains(err.Error(), "teardown of container dbsmoke-test-db failed") {
		t.Errorf("Expected teardown error, got: %s", err)
	}

	rt.AssertExpectations(t)
}

func TestRunner_Run_TeardownVerifiesAbsence(t *testing.T) {
	rt := NewMockRuntime()
	rt.On("Remove", mock.Anything, "dbsmoke-test-db").Return(nil).Once()
	rt.On("Status", mock.Anything, "dbsmoke-test-db").Return(runtime.StatusExited, nil).Once()

	runner := NewRunner(testEnv(t, rt, NewMockQuerier()))

	err := runner.Run(context.Background(), noopScenario(nil))
	if err == nil {
		t.Fatal("Expected verification failure, got nil")
	}
	if !strings.Contains(err.Error(), "still exited after teardown") {
		t.Errorf("Expected absence verification error, got: %s", err)
	}

	rt.AssertExpectations(t)
}

func TestRunner_Run_TeardownRunsWhenContextCanceled(t *testing.T) {
	rt := NewMockRuntime()
	rt.On("Remove", mock.Anything, "dbsmoke-test-db").Return(nil).Once()
	rt.On("Status", mock.Anything, "dbsmoke-test-db").Return(runtime.StatusAbsent, nil).Once()

	runner := NewRunner(testEnv(t, rt, NewMockQuerier()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := Scenario{
		Name: "canceled",
		Run: func(ctx context.Context, env *Env) error {
			return ctx.Err()
		},
	}

	err := runner.Run(ctx, sc)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context cancellation to surface, got: %v", err)
	}

	// Teardown must still have removed the container despite the canceled
	// run context.
	rt.AssertExpectations(t)
}
