package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"

	"dbsmoke/internal/envfile"
	"dbsmoke/pkg/runtime"
)

// DefaultDataTarget is where the server keeps its data inside the container,
// used when StartOptions.DataDirTarget is empty.
const DefaultDataTarget = "/var/lib/mysql"

// DockerRuntime implements the ContainerRuntime interface using Docker client.
type DockerRuntime struct {
	client *client.Client
}

// NewDockerRuntime creates a new DockerRuntime instance using client.FromEnv.
func NewDockerRuntime() (*DockerRuntime, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	// Check if Docker daemon is accessible
	ctx := context.Background()
	_, err = dockerClient.Ping(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}

	return &DockerRuntime{
		client: dockerClient,
	}, nil
}

// EnsureImage pulls the image unless it is already present locally.
func (d *DockerRuntime) EnsureImage(ctx context.Context, imageName string) error {
	_, _, err := d.client.ImageInspectWithRaw(ctx, imageName)
	if err == nil {
		slog.Info("Image already present", "image", imageName)
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to inspect image %s: %w", imageName, err)
	}

	slog.Info("Pulling Docker image", "image", imageName)

	reader, err := d.client.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageName, err)
	}
	defer reader.Close()

	// Drain the pull progress stream; the pull only completes once it is
	// fully consumed.
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to stream image pull output: %w", err)
	}

	slog.Info("Successfully pulled Docker image", "image", imageName)
	return nil
}

// Start creates and starts the named container with the environment
// assembled from the configuration sink and ExtraEnv.
func (d *DockerRuntime) Start(ctx context.Context, opts runtime.StartOptions) error {
	slog.Info("Starting container", "name", opts.Name, "image", opts.Image)

	env, err := buildEnv(opts)
	if err != nil {
		return err
	}

	port, err := nat.NewPort("tcp", strconv.Itoa(opts.Port.ContainerPort))
	if err != nil {
		return fmt.Errorf("invalid container port %d: %w", opts.Port.ContainerPort, err)
	}

	containerConfig := &container.Config{
		Image:        opts.Image,
		Env:          env,
		ExposedPorts: nat.PortSet{port: struct{}{}},
	}

	hostConfig := &container.HostConfig{
		PortBindings: nat.PortMap{
			port: []nat.PortBinding{{
				HostIP:   opts.Port.HostIP,
				HostPort: strconv.Itoa(opts.Port.HostPort),
			}},
		},
	}

	if opts.DataDir != "" {
		target := opts.DataDirTarget
		if target == "" {
			target = DefaultDataTarget
		}
		hostConfig.Mounts = []mount.Mount{{
			Type:   mount.TypeBind,
			Source: opts.DataDir,
			Target: target,
		}}
	}

	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, opts.Name)
	if err != nil {
		return fmt.Errorf("failed to create container %s: %w", opts.Name, err)
	}

	if err := d.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		// Clean up on start failure
		if removeErr := d.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true}); removeErr != nil {
			slog.Error("Failed to remove container after start failure", "containerID", resp.ID, "error", removeErr)
		}
		return fmt.Errorf("failed to start container %s: %w", opts.Name, err)
	}

	slog.Info("Container started", "name", opts.Name, "containerID", resp.ID)
	return nil
}

// buildEnv merges the configuration sink with ExtraEnv, ExtraEnv winning.
func buildEnv(opts runtime.StartOptions) ([]string, error) {
	merged := make(map[string]string)

	if opts.EnvFile != "" {
		fromFile, err := envfile.Read(opts.EnvFile)
		if err != nil {
			return nil, err
		}
		for key, value := range fromFile {
			merged[key] = value
		}
	}

	for key, value := range opts.ExtraEnv {
		merged[key] = value
	}

	env := make([]string, 0, len(merged))
	for key, value := range merged {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	return env, nil
}

// Stop stops a running container. Stopping an already stopped container is
// a no-op on the daemon side.
func (d *DockerRuntime) Stop(ctx context.Context, name string) error {
	slog.Info("Stopping container", "name", name)

	if err := d.client.ContainerStop(ctx, name, container.StopOptions{}); err != nil {
		return fmt.Errorf("failed to stop container %s: %w", name, err)
	}
	return nil
}

// Remove force-removes a container. An absent container is not an error, so
// pre-start cleanup and teardown can run unconditionally.
func (d *DockerRuntime) Remove(ctx context.Context, name string) error {
	if err := d.client.ContainerRemove(ctx, name, container.RemoveOptions{Force: true}); err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove container %s: %w", name, err)
	}

	slog.Info("Removed container", "name", name)
	return nil
}

// Status reports the container state, StatusAbsent when no container with
// that name exists.
func (d *DockerRuntime) Status(ctx context.Context, name string) (runtime.Status, error) {
	resp, err := d.client.ContainerInspect(ctx, name)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return runtime.StatusAbsent, nil
		}
		return "", fmt.Errorf("failed to inspect container %s: %w", name, err)
	}

	if resp.State == nil {
		return "", fmt.Errorf("container %s reported no state", name)
	}
	return runtime.Status(resp.State.Status), nil
}

// Logs returns a snapshot of the container's combined output. The stream
// carries Docker's multiplex framing; logscan strips it.
func (d *DockerRuntime) Logs(ctx context.Context, name string) (io.ReadCloser, error) {
	logs, err := d.client.ContainerLogs(ctx, name, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get logs for container %s: %w", name, err)
	}
	return logs, nil
}
