package app

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"time"
)

// RunState records which scenarios have already passed so an interrupted run
// can resume without repeating them.
type RunState struct {
	SchemaVersion   string    `json:"schema_version"`
	RunID           string    `json:"run_id"`
	SuitePath       string    `json:"suite_path"`
	PassedScenarios []string  `json:"passed_scenarios"`
	CreatedAt       time.Time `json:"created_at"`
	LastUpdatedAt   time.Time `json:"last_updated_at"`
}

const (
	StateFileName      = ".dbsmoke.state.json"
	StateSchemaVersion = "1.0"
)

// loadState attempts to load the run state from the state file.
// Returns nil if the file doesn't exist (fresh start).
func loadState() (*RunState, error) {
	if _, err := os.Stat(StateFileName); os.IsNotExist(err) {
		return nil, nil // Fresh start - no state file exists
	}

	data, err := os.ReadFile(StateFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	return &state, nil
}

// saveState persists the run state to the state file.
func saveState(state *RunState) error {
	state.LastUpdatedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}

	if err := os.WriteFile(StateFileName, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// newState creates a new run state for a fresh run
func newState(suitePath, runID string) *RunState {
	now := time.Now()
	return &RunState{
		SchemaVersion: StateSchemaVersion,
		RunID:         runID,
		SuitePath:     suitePath,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// hasPassed reports whether the named scenario already passed in this run.
func (s *RunState) hasPassed(name string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.PassedScenarios, name)
}

// markPassed records a scenario pass. Recording the same name twice is a
// no-op so a resumed run cannot inflate the list.
func (s *RunState) markPassed(name string) {
	if s.hasPassed(name) {
		return
	}
	s.PassedScenarios = append(s.PassedScenarios, name)
}

// removeStateFile removes the state file after successful completion
func removeStateFile() error {
	if _, err := os.Stat(StateFileName); os.IsNotExist(err) {
		return nil // File doesn't exist, nothing to remove
	}

	if err := os.Remove(StateFileName); err != nil {
		return fmt.Errorf("failed to remove state file: %w", err)
	}

	return nil
}
