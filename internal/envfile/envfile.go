// Package envfile is the harness's configuration sink: the KEY=VALUE file
// each scenario writes before requesting a container start. The Docker
// runtime reads the same file back when assembling the container
// environment, so values round-trip through godotenv's quoting.
package envfile

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Write serializes vars to path in KEY=VALUE form, replacing any previous
// contents. Scenarios overwrite the sink rather than merging into it.
func Write(path string, vars map[string]string) error {
	if err := godotenv.Write(vars, path); err != nil {
		return fmt.Errorf("failed to write env file %s: %w", path, err)
	}
	return nil
}

// Read loads the file into a map.
func Read(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return vars, nil
}

// Remove deletes the sink. An absent file is not an error, so end-of-run
// cleanup can run unconditionally.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove env file %s: %w", path, err)
	}
	return nil
}
