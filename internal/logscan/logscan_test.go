package logscan

import (
	"strings"
	"testing"
)

// frame wraps a payload in the 8-byte multiplexed stream header Docker
// prepends when the container has no TTY.
func frame(stream byte, payload string) string {
	size := len(payload)
	header := []byte{stream, 0, 0, 0, byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size)}
	return string(header) + payload
}

func TestCleanLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain line passes through",
			input:    "2024-08-23 12:00:01+00:00 [Note] [Entrypoint]: MySQL init process done.",
			expected: "2024-08-23 12:00:01+00:00 [Note] [Entrypoint]: MySQL init process done.",
		},
		{
			name:     "empty line",
			input:    "",
			expected: "",
		},
		{
			name:     "whitespace trimmed",
			input:    "   ready for connections.   ",
			expected: "ready for connections.",
		},
		{
			name:     "stdout stream header stripped",
			input:    frame(1, "mysqld: ready for connections."),
			expected: "mysqld: ready for connections.",
		},
		{
			name:     "stderr stream header stripped",
			input:    frame(2, "[Warning] CA certificate is self signed."),
			expected: "[Warning] CA certificate is self signed.",
		},
		{
			name:     "header with no content",
			input:    string([]byte{1, 0, 0, 0, 0, 0, 0, 0}),
			expected: "",
		},
		{
			name:     "ANSI escape sequences removed",
			input:    "\x1b[32mready\x1b[0m for connections",
			expected: "ready for connections",
		},
		{
			name:     "control characters removed",
			input:    "ready\x00 for\x03 connections",
			expected: "ready for connections",
		},
		{
			name:     "mostly binary line dropped",
			input:    "\xff\xfe\xfd\xfc\xfb\xfaab",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanLine(tt.input)
			if result != tt.expected {
				t.Errorf("CleanLine(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFirstWithPrefix(t *testing.T) {
	t.Run("extracts generated password", func(t *testing.T) {
		logs := strings.Join([]string{
			frame(1, "2024-08-23 12:00:00+00:00 [Note] [Entrypoint]: Initializing database files"),
			frame(1, "2024-08-23 12:00:05+00:00 [Note] [Entrypoint]: GENERATED ROOT PASSWORD: Axs0(pZ1bQvR8mJ2"),
			frame(1, "2024-08-23 12:00:09+00:00 [Note] [Entrypoint]: MySQL init process done."),
		}, "\n")

		value, found, err := FirstWithPrefix(strings.NewReader(logs), "GENERATED ROOT PASSWORD")
		if err != nil {
			t.Fatalf("FirstWithPrefix() failed: %v", err)
		}
		if !found {
			t.Fatal("FirstWithPrefix() did not find the prefix")
		}
		if value != "Axs0(pZ1bQvR8mJ2" {
			t.Errorf("FirstWithPrefix() = %q, want %q", value, "Axs0(pZ1bQvR8mJ2")
		}
	})

	t.Run("first matching line wins", func(t *testing.T) {
		logs := "GENERATED ROOT PASSWORD: first\nGENERATED ROOT PASSWORD: second\n"

		value, found, err := FirstWithPrefix(strings.NewReader(logs), "GENERATED ROOT PASSWORD")
		if err != nil {
			t.Fatalf("FirstWithPrefix() failed: %v", err)
		}
		if !found || value != "first" {
			t.Errorf("FirstWithPrefix() = (%q, %v), want (%q, true)", value, found, "first")
		}
	})

	t.Run("prefix absent", func(t *testing.T) {
		logs := "2024-08-23 12:00:00+00:00 [Note] [Entrypoint]: Initializing database files\n"

		value, found, err := FirstWithPrefix(strings.NewReader(logs), "GENERATED ROOT PASSWORD")
		if err != nil {
			t.Fatalf("FirstWithPrefix() failed: %v", err)
		}
		if found {
			t.Errorf("FirstWithPrefix() found %q in a stream without the prefix", value)
		}
	})

	t.Run("empty stream", func(t *testing.T) {
		_, found, err := FirstWithPrefix(strings.NewReader(""), "GENERATED ROOT PASSWORD")
		if err != nil {
			t.Fatalf("FirstWithPrefix() failed: %v", err)
		}
		if found {
			t.Error("FirstWithPrefix() should not match in an empty stream")
		}
	})
}

func TestContainsLine(t *testing.T) {
	logs := strings.Join([]string{
		frame(1, "2024-08-23 12:00:00+00:00 [Note] [Entrypoint]: Starting MySQL 8.0.39"),
		frame(1, "2024-08-23T12:00:07.000000Z 0 [System] [MY-010931] [Server] /usr/sbin/mysqld: ready for connections."),
	}, "\n")

	t.Run("marker present", func(t *testing.T) {
		found, err := ContainsLine(strings.NewReader(logs), "ready for connections")
		if err != nil {
			t.Fatalf("ContainsLine() failed: %v", err)
		}
		if !found {
			t.Error("ContainsLine() should find the readiness marker")
		}
	})

	t.Run("marker absent", func(t *testing.T) {
		found, err := ContainsLine(strings.NewReader(logs), "GENERATED ROOT PASSWORD")
		if err != nil {
			t.Fatalf("ContainsLine() failed: %v", err)
		}
		if found {
			t.Error("ContainsLine() matched a marker that is not in the stream")
		}
	})
}
