package suite

import (
	"fmt"
	"time"
)

// Suite is the root object that holds the entire configuration for a dbsmoke
// run. It's populated by parsing the user's dbsmoke.yaml file.
type Suite struct {
	APIVersion string   `yaml:"apiVersion" validate:"required"`
	Kind       string   `yaml:"kind" validate:"required,eq=SmokeSuite"`
	Metadata   Metadata `yaml:"metadata" validate:"required"`
	Spec       Spec     `yaml:"spec" validate:"required"`
}

// Metadata contains suite-level metadata.
type Metadata struct {
	Name        string            `yaml:"name" validate:"required"`
	Description string            `yaml:"description"`
	Labels      map[string]string `yaml:"labels,omitempty"`
}

// Spec contains the detailed specification of the image under test and how
// the harness reaches it.
type Spec struct {
	Engine    string    `yaml:"engine" validate:"required,oneof=docker"`
	Image     Image     `yaml:"image" validate:"required"`
	Container Container `yaml:"container" validate:"required"`
	Database  Database  `yaml:"database" validate:"required"`
	Readiness Readiness `yaml:"readiness"`
	Workspace Workspace `yaml:"workspace"`
}

// Image identifies the database container image under test.
type Image struct {
	Repository string `yaml:"repository" validate:"required"`
	Tag        string `yaml:"tag" validate:"required"`
}

// Ref returns the repository:tag reference passed to the container runtime.
func (i Image) Ref() string {
	return fmt.Sprintf("%s:%s", i.Repository, i.Tag)
}

// Container describes the single named container the harness owns. At most
// one container with this name exists at a time; the harness removes any
// leftover instance before each start.
type Container struct {
	Name     string `yaml:"name" validate:"required"`
	Port     int    `yaml:"port" validate:"required,min=1,max=65535"`
	HostIP   string `yaml:"hostIP" validate:"required,ip"`
	HostPort int    `yaml:"hostPort" validate:"required,min=1,max=65535"`
}

// Database holds the service configuration values the harness forwards into
// the configuration sink. Environment variables (DBSMOKE_*) override these;
// the harness never interprets them beyond forwarding.
type Database struct {
	RootPassword string `yaml:"rootPassword" validate:"required"`
	Name         string `yaml:"name" validate:"required"`
	User         string `yaml:"user" validate:"required"`
	Password     string `yaml:"password" validate:"required"`
	// RootHost is the address the root-host-restriction scenario allows;
	// it must be outside the harness's own network for the scenario to mean
	// anything.
	RootHost string `yaml:"rootHost" validate:"required"`
	// SkipTzinfo forwards the timezone-skip directive into scenarios that
	// use the suite defaults. The two timezone scenarios set the directive
	// explicitly and ignore this value.
	SkipTzinfo bool `yaml:"skipTzinfo"`
	// DataDir optionally points the volume-persistence scenario at an
	// external storage location instead of a scratch dir.
	DataDir string `yaml:"dataDir"`
}

// Readiness bounds the polling loop that waits for the service to answer a
// trivial query after container start.
type Readiness struct {
	Interval    time.Duration `yaml:"interval" validate:"omitempty,min=1ms"`
	MaxAttempts int           `yaml:"maxAttempts" validate:"omitempty,min=1"`
}

// Workspace controls where the harness keeps its scratch files: the
// configuration sink and per-scenario data directories.
type Workspace struct {
	Dir    string `yaml:"dir"`
	Retain bool   `yaml:"retain"`
}

// Defaults applied by the parser when the suite file leaves fields unset.
const (
	DefaultContainerName = "dbsmoke-db"
	DefaultHostIP        = "127.0.0.1"
	DefaultHostPort      = 13306
	DefaultPort          = 3306
	DefaultWorkspaceDir  = ".dbsmoke"

	DefaultReadinessInterval = time.Second
	DefaultReadinessAttempts = 31
)
