package runtime

import (
	"context"
	"io"
)

// Status is the externally observable state of a named container, as reported
// by the runtime's inspect operation. Absent means no container with that
// name exists.
type Status string

const (
	StatusCreated    Status = "created"
	StatusRunning    Status = "running"
	StatusPaused     Status = "paused"
	StatusRestarting Status = "restarting"
	StatusRemoving   Status = "removing"
	StatusExited     Status = "exited"
	StatusDead       Status = "dead"
	StatusAbsent     Status = "absent"
)

// PortBinding maps a container port onto a fixed host address.
type PortBinding struct {
	HostIP        string
	HostPort      int
	ContainerPort int
}

// StartOptions defines the parameters for starting the named container.
type StartOptions struct {
	Name  string
	Image string
	Port  PortBinding

	// EnvFile is the configuration sink: a newline-separated KEY=VALUE file
	// read by the runtime at container-create time.
	EnvFile string

	// ExtraEnv is merged over the EnvFile contents, later values winning.
	ExtraEnv map[string]string

	// DataDir, when non-empty, is bind-mounted on the server's data
	// directory inside the container.
	DataDir string

	// DataDirTarget overrides the in-container mount point for DataDir.
	// Empty means the implementation's default.
	DataDirTarget string
}

// ContainerRuntime defines the contract for container lifecycle operations.
type ContainerRuntime interface {
	// EnsureImage pulls the image unless it is already present locally.
	EnsureImage(ctx context.Context, image string) error

	// Start creates and starts a container under opts.Name. The caller must
	// guarantee no container with that name exists.
	Start(ctx context.Context, opts StartOptions) error

	// Stop stops a running container. Stopping a stopped container is not
	// an error.
	Stop(ctx context.Context, name string) error

	// Remove force-removes a container. Removing an absent container is not
	// an error.
	Remove(ctx context.Context, name string) error

	// Status reports the container state, StatusAbsent when no container
	// with that name exists.
	Status(ctx context.Context, name string) (Status, error)

	// Logs returns a snapshot of the container's combined stdout/stderr
	// stream. The caller closes the reader.
	Logs(ctx context.Context, name string) (io.ReadCloser, error)
}
