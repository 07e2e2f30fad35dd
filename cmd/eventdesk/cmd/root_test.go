package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectError    string
	}{
		{
			name:           "help flag",
			args:           []string{"--help"},
			expectedOutput: "eventdesk manages events",
		},
		{
			name:           "short help flag",
			args:           []string{"-h"},
			expectedOutput: "eventdesk manages events",
		},
		{
			name:        "invalid flag",
			args:        []string{"--invalid-flag"},
			expectError: "unknown flag: --invalid-flag",
		},
		{
			name:        "unknown command",
			args:        []string{"frobnicate"},
			expectError: `unknown command "frobnicate"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create a new root command for each test to avoid state pollution
			cmd := newRootCommand(&cli{})

			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			output := buf.String()

			if tt.expectError != "" {
				if err == nil {
					t.Fatalf("expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.expectError) {
					t.Errorf("expected error to contain %q, got %v", tt.expectError, err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !strings.Contains(output, tt.expectedOutput) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.expectedOutput, output)
			}
		})
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	cmd := newRootCommand(&cli{})

	flags := []string{"config", "api-url", "log-level", "log-format", "output"}
	for _, flag := range flags {
		if f := cmd.PersistentFlags().Lookup(flag); f == nil {
			t.Errorf("expected persistent flag %q to be defined", flag)
		}
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	cmd := newRootCommand(&cli{})

	expected := []string{"signup", "login", "logout", "whoami", "events", "participants", "report", "version"}
	for _, name := range expected {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}
}
