// Package logscan reads container log snapshots: it cleans the raw Docker
// log stream and extracts values the image's entrypoint prints, such as a
// generated root password.
package logscan

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ansiRegex is a compiled regex for ANSI escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// CleanLine removes Docker log headers, ANSI escape sequences, and filters
// out binary/control characters.
func CleanLine(line string) string {
	// Skip empty lines
	if len(line) == 0 {
		return ""
	}

	// Docker log format has 8-byte header: [STREAM_TYPE][0][0][0][SIZE]
	// Remove Docker log header if present
	if len(line) >= 8 {
		// Check if line starts with Docker log header pattern
		if line[0] == 1 || line[0] == 2 { // stdout or stderr stream type
			if len(line) > 8 {
				line = line[8:]
			} else {
				return "" // Header only, no content
			}
		}
	}

	// Remove ANSI escape sequences (colors, formatting, etc.)
	line = ansiRegex.ReplaceAllString(line, "")

	// Remove common control characters
	line = strings.ReplaceAll(line, "\x00", "")
	line = strings.ReplaceAll(line, "\x01", "")
	line = strings.ReplaceAll(line, "\x02", "")
	line = strings.ReplaceAll(line, "\x03", "")

	// Trim whitespace
	line = strings.TrimSpace(line)

	// Skip empty lines after cleaning
	if len(line) == 0 {
		return ""
	}

	// Filter out lines that are mostly binary/control characters
	printableChars := 0
	for _, r := range line {
		if r >= 32 && r <= 126 { // printable ASCII range
			printableChars++
		}
	}

	// If less than 50% printable characters, skip the line
	if len(line) > 0 && float64(printableChars)/float64(len(line)) < 0.5 {
		return ""
	}

	return line
}

// FirstWithPrefix scans a log stream for the first cleaned line containing
// prefix and returns the value that follows it, with any separating colon
// and whitespace stripped. The entrypoint prefixes its lines with a
// timestamp and severity, so the prefix is matched anywhere in the line.
func FirstWithPrefix(r io.Reader, prefix string) (string, bool, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := CleanLine(scanner.Text())
		if line == "" {
			continue
		}

		if i := strings.Index(line, prefix); i >= 0 {
			value := line[i+len(prefix):]
			value = strings.TrimLeft(value, ": \t")
			return strings.TrimSpace(value), true, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", false, fmt.Errorf("error reading log stream: %w", err)
	}

	return "", false, nil
}

// ContainsLine reports whether any cleaned line in the stream contains
// substr. Used for log-based readiness when the service cannot be queried.
func ContainsLine(r io.Reader, substr string) (bool, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := CleanLine(scanner.Text()); line != "" && strings.Contains(line, substr) {
			return true, nil
		}
	}

	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("error reading log stream: %w", err)
	}

	return false, nil
}
