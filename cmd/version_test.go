package cmd

import (
	"bytes"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	original := GetVersion()
	defer SetVersion(original)
	SetVersion("2.3.4")

	versionCmd := newVersionCmd()
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.SetArgs([]string{})

	if err := versionCmd.Execute(); err != nil {
		t.Fatalf("Error executing version command: %v", err)
	}
	if got := buf.String(); got != "ghnotifier version 2.3.4\n" {
		t.Errorf("Expected %q, got %q", "ghnotifier version 2.3.4\n", got)
	}
}

func TestVersionIgnoresBrokenConfig(t *testing.T) {
	rootCmd := newRootCmd()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version", "--config", "/nonexistent/dir/broken.yaml", "--log-level", "nonsense"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version should not load the config: %v", err)
	}
}
