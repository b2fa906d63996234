package app

import (
	"os"
	"testing"
)

func TestStateFile_LoadSaveRemove(t *testing.T) {
	// Test state file operations in isolation
	tempDir := t.TempDir()

	// Change to temp directory to control where the state file is created
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %s", err)
	}
	defer func() { _ = os.Chdir(originalDir) }()

	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %s", err)
	}

	// Test loadState with no file
	state, err := loadState()
	if err != nil {
		t.Errorf("loadState should not error when file doesn't exist, got: %s", err)
	}
	if state != nil {
		t.Error("loadState should return nil when no state file exists")
	}

	// Test saveState
	testState := newState("dbsmoke.yaml", "test-run-id")
	testState.markPassed("root-password")
	testState.markPassed("allow-empty-password")

	if err := saveState(testState); err != nil {
		t.Fatalf("saveState failed: %s", err)
	}

	// Verify file exists
	if _, err := os.Stat(StateFileName); os.IsNotExist(err) {
		t.Error("State file should exist after saveState")
	}

	// Test loadState with existing file
	loadedState, err := loadState()
	if err != nil {
		t.Fatalf("loadState failed: %s", err)
	}

	if loadedState == nil {
		t.Error("loadState should return state when file exists")
		return
	}

	if loadedState.RunID != "test-run-id" {
		t.Errorf("Expected RunID 'test-run-id', got: %s", loadedState.RunID)
	}

	if loadedState.SchemaVersion != StateSchemaVersion {
		t.Errorf("Expected schema version %s, got: %s", StateSchemaVersion, loadedState.SchemaVersion)
	}

	if len(loadedState.PassedScenarios) != 2 {
		t.Errorf("Expected 2 passed scenarios, got: %v", loadedState.PassedScenarios)
	}

	if !loadedState.hasPassed("root-password") {
		t.Error("Expected 'root-password' to be recorded as passed")
	}

	if loadedState.hasPassed("volume-persistence") {
		t.Error("Did not expect 'volume-persistence' to be recorded as passed")
	}

	// Test removeStateFile
	if err := removeStateFile(); err != nil {
		t.Fatalf("removeStateFile failed: %s", err)
	}

	// Verify file is gone
	if _, err := os.Stat(StateFileName); !os.IsNotExist(err) {
		t.Error("State file should be removed after removeStateFile")
	}

	// Test removeStateFile when file doesn't exist (should not error)
	if err := removeStateFile(); err != nil {
		t.Errorf("removeStateFile should not error when file doesn't exist, got: %s", err)
	}
}

func TestRunState_PassTracking(t *testing.T) {
	state := newState("dbsmoke.yaml", "tracking-run")

	if state.hasPassed("root-password") {
		t.Error("A fresh state should have no passed scenarios")
	}

	state.markPassed("root-password")
	state.markPassed("timezone-data")
	state.markPassed("root-password") // duplicate must be a no-op

	if len(state.PassedScenarios) != 2 {
		t.Errorf("Expected 2 recorded passes, got: %v", state.PassedScenarios)
	}

	if !state.hasPassed("root-password") || !state.hasPassed("timezone-data") {
		t.Errorf("Expected both scenarios recorded, got: %v", state.PassedScenarios)
	}
}

func TestRunState_NilReceiver(t *testing.T) {
	var state *RunState

	// A missing state means nothing has passed yet.
	if state.hasPassed("root-password") {
		t.Error("A nil state should report nothing as passed")
	}
}
