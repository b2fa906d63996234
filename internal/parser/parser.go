package parser

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"dbsmoke/pkg/suite"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// DefaultSuiteFiles are tried in order when no suite file is named on the
// command line.
var DefaultSuiteFiles = []string{"dbsmoke.yaml", "dbsmoke.yml"}

// Resolve returns the suite file to load. An explicit path wins; with an
// empty path the default file names are tried in the working directory.
func Resolve(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return "", fmt.Errorf("suite file not found: %s", path)
		}
		return path, nil
	}

	for _, name := range DefaultSuiteFiles {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	return "", fmt.Errorf("no suite file found: tried %s", strings.Join(DefaultSuiteFiles, ", "))
}

// Parse reads and validates a suite YAML file, returning the parsed Suite
// struct or an error. Defaults and DBSMOKE_* environment overrides are
// applied before validation, so CI can supply credentials without editing
// the file.
func Parse(filePath string) (*suite.Suite, error) {
	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("suite file not found: %s", filePath)
	}

	// Configure Viper
	v := viper.New()
	v.SetConfigFile(filePath)
	v.SetConfigType("yaml")

	// Read the file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("suite file not found: %s", filePath)
		}
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	// Unmarshal into Suite struct
	var s suite.Suite
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse suite file - malformed YAML: %w", err)
	}

	applyDefaults(&s)
	applyEnvOverrides(&s)

	// Validate the structure
	if err := validate.Struct(&s); err != nil {
		return nil, formatValidationError(err)
	}

	return &s, nil
}

// applyDefaults fills fields the suite file leaves unset.
func applyDefaults(s *suite.Suite) {
	if s.Spec.Engine == "" {
		s.Spec.Engine = "docker"
	}
	if s.Spec.Container.Name == "" {
		s.Spec.Container.Name = suite.DefaultContainerName
	}
	if s.Spec.Container.Port == 0 {
		s.Spec.Container.Port = suite.DefaultPort
	}
	if s.Spec.Container.HostIP == "" {
		s.Spec.Container.HostIP = suite.DefaultHostIP
	}
	if s.Spec.Container.HostPort == 0 {
		s.Spec.Container.HostPort = suite.DefaultHostPort
	}
	if s.Spec.Readiness.Interval == 0 {
		s.Spec.Readiness.Interval = suite.DefaultReadinessInterval
	}
	if s.Spec.Readiness.MaxAttempts == 0 {
		s.Spec.Readiness.MaxAttempts = suite.DefaultReadinessAttempts
	}
	if s.Spec.Workspace.Dir == "" {
		s.Spec.Workspace.Dir = suite.DefaultWorkspaceDir
	}
}

// envOverrides maps DBSMOKE_* variables onto suite fields. Entries apply in
// order, each only when the variable is set and non-empty, winning over both
// file values and defaults.
var envOverrides = []struct {
	envVar string
	apply  func(*suite.Suite, string)
}{
	{"DBSMOKE_IMAGE", func(s *suite.Suite, v string) {
		repo, tag := splitImageRef(v)
		s.Spec.Image.Repository = repo
		if tag != "" {
			s.Spec.Image.Tag = tag
		}
	}},
	{"DBSMOKE_ROOT_PASSWORD", func(s *suite.Suite, v string) { s.Spec.Database.RootPassword = v }},
	{"DBSMOKE_DATABASE", func(s *suite.Suite, v string) { s.Spec.Database.Name = v }},
	{"DBSMOKE_USER", func(s *suite.Suite, v string) { s.Spec.Database.User = v }},
	{"DBSMOKE_PASSWORD", func(s *suite.Suite, v string) { s.Spec.Database.Password = v }},
	{"DBSMOKE_ROOT_HOST", func(s *suite.Suite, v string) { s.Spec.Database.RootHost = v }},
	{"DBSMOKE_SKIP_TZINFO", func(s *suite.Suite, v string) {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("Ignoring invalid boolean override", "envVar", "DBSMOKE_SKIP_TZINFO", "value", v)
			return
		}
		s.Spec.Database.SkipTzinfo = b
	}},
	{"DBSMOKE_DATA_DIR", func(s *suite.Suite, v string) { s.Spec.Database.DataDir = v }},
}

func applyEnvOverrides(s *suite.Suite) {
	for _, o := range envOverrides {
		if v := os.Getenv(o.envVar); v != "" {
			o.apply(s, v)
		}
	}
}

// splitImageRef splits an image reference on its tag colon. A colon followed
// by a slash belongs to a registry host, not a tag.
func splitImageRef(ref string) (string, string) {
	if i := strings.LastIndex(ref, ":"); i >= 0 && !strings.Contains(ref[i+1:], "/") {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, formatFieldError(e))
		}

		if len(errorMessages) == 1 {
			return fmt.Errorf("validation error: %s", errorMessages[0])
		}

		result := "validation errors:\n"
		for _, msg := range errorMessages {
			result += fmt.Sprintf("  - %s\n", msg)
		}
		return fmt.Errorf("%s", result)
	}
	return fmt.Errorf("validation failed: %w", err)
}

// formatFieldError formats a single validation error into a user-friendly message.
func formatFieldError(e validator.FieldError) string {
	field := e.Field()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("field '%s' is required but missing", field)
	case "eq":
		return fmt.Sprintf("field '%s' must be '%s'", field, e.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
	case "ip":
		return fmt.Sprintf("field '%s' must be a valid IP address", field)
	case "min":
		return fmt.Sprintf("field '%s' must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s", field, e.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation (%s)", field, tag)
	}
}
