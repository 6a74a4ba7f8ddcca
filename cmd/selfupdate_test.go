package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewSelfUpdateCmd(t *testing.T) {
	selfUpdateCmd := newSelfUpdateCmd()

	if selfUpdateCmd.Use != "self-update" {
		t.Errorf("Expected Use to be 'self-update', got %s", selfUpdateCmd.Use)
	}
	if selfUpdateCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}
	if selfUpdateCmd.RunE == nil {
		t.Error("Expected RunE function to be set")
	}

	flag := selfUpdateCmd.Flags().Lookup("repository")
	if flag == nil {
		t.Fatal("Expected --repository flag to be registered")
	}
	if flag.DefValue != releaseRepository {
		t.Errorf("Expected --repository to default to %q, got %q", releaseRepository, flag.DefValue)
	}
}

func TestRunSelfUpdateRejectsInvalidRepository(t *testing.T) {
	for _, repo := range []string{"", "ghnotifier", "/ghnotifier", "owner/", "a/b/c"} {
		var out bytes.Buffer
		err := runSelfUpdate(context.Background(), &out, "1.0.0", repo)
		if err == nil {
			t.Fatalf("Expected error for repository %q", repo)
		}
		if !strings.Contains(err.Error(), "invalid release repository") {
			t.Errorf("Unexpected error for %q: %v", repo, err)
		}
		if out.Len() != 0 {
			t.Errorf("Expected no output for %q, got %q", repo, out.String())
		}
	}
}

func TestRunSelfUpdateWithDevVersion(t *testing.T) {
	for _, v := range []string{"dev", ""} {
		var out bytes.Buffer
		err := runSelfUpdate(context.Background(), &out, v, releaseRepository)
		if err == nil {
			t.Fatalf("Expected error for version %q", v)
		}
		if !strings.Contains(err.Error(), "cannot self-update a development version") {
			t.Errorf("Expected specific error message, got: %s", err.Error())
		}
		if out.Len() != 0 {
			t.Errorf("Expected no output, got %q", out.String())
		}
	}
}

func TestSelfUpdateCommandHelp(t *testing.T) {
	selfUpdateCmd := newSelfUpdateCmd()
	var buf bytes.Buffer
	selfUpdateCmd.SetOut(&buf)
	selfUpdateCmd.SetErr(&buf)
	selfUpdateCmd.SetArgs([]string{"--help"})

	if err := selfUpdateCmd.Execute(); err != nil {
		t.Fatalf("Error executing self-update help: %v", err)
	}
	if !strings.Contains(buf.String(), "Checks for the latest release") {
		t.Errorf("Help output should contain long description. Got: %q", buf.String())
	}
}
