package app

import (
	"fmt"

	"dbsmoke/internal/runtime"
	runtimePkg "dbsmoke/pkg/runtime"
)

// EngineFactory creates container runtimes from the engine identifier in the
// suite configuration, decoupling the orchestrator from concrete runtime
// implementations.
type EngineFactory struct{}

// NewEngineFactory creates a new instance of EngineFactory.
func NewEngineFactory() *EngineFactory {
	return &EngineFactory{}
}

// GetRuntime returns the container runtime implementation for the engine
// named in the suite configuration.
func (f *EngineFactory) GetRuntime(engine string) (runtimePkg.ContainerRuntime, error) {
	switch engine {
	case "docker":
		rt, err := runtime.NewDockerRuntime()
		if err != nil {
			return nil, fmt.Errorf("failed to create Docker runtime: %w", err)
		}
		return rt, nil
	default:
		return nil, fmt.Errorf("unsupported container engine: %s", engine)
	}
}
