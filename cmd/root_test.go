package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"ghnotifier/internal/deviceflow"
	"ghnotifier/internal/github"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersion(t *testing.T) {
	original := GetVersion()
	defer SetVersion(original)

	SetVersion("1.2.3-test")
	if got := newRootCmd().Version; got != "1.2.3-test" {
		t.Errorf("Expected version to be 1.2.3-test, got %s", got)
	}
}

func TestRootCommand(t *testing.T) {
	rootCmd := newRootCmd()

	if rootCmd.Use != "ghnotifier" {
		t.Errorf("Expected Use to be 'ghnotifier', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}
	if rootCmd.Long == "" {
		t.Error("Expected Long description to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestSubcommands(t *testing.T) {
	found := make(map[string]bool)
	for _, c := range newRootCmd().Commands() {
		found[c.Name()] = true
	}

	for _, expected := range []string{"auth", "watch", "history", "config", "version", "self-update"} {
		if !found[expected] {
			t.Errorf("Expected subcommand %s to be registered", expected)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	original := GetVersion()
	defer SetVersion(original)
	SetVersion("1.0.0")

	rootCmd := newRootCmd()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Error executing --version: %v", err)
	}
	if got := buf.String(); got != "ghnotifier version 1.0.0\n" {
		t.Errorf("Expected version output %q, got %q", "ghnotifier version 1.0.0\n", got)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"general", errors.New("boom"), ExitCodeError},
		{"auth required", &AuthRequiredError{Reason: "no token is stored"}, ExitCodeAuthRequired},
		{"wrapped auth required", fmt.Errorf("watch: %w", &AuthRequiredError{Reason: "x"}), ExitCodeAuthRequired},
		{"unauthorized", &github.ProtocolError{Endpoint: "/notifications", StatusCode: 401, Reason: errors.New("Bad credentials")}, ExitCodeAuthRequired},
		{"server error", &github.ProtocolError{Endpoint: "/notifications", StatusCode: 502, Reason: errors.New("bad gateway")}, ExitCodeError},
		{"transport", &github.TransportError{Endpoint: "/notifications", Reason: errors.New("refused")}, ExitCodeError},
		{"auth failed", &AuthFailedError{Reason: errors.New("denied")}, ExitCodeAuthFailed},
		{"denied", &deviceflow.AuthorizationError{Code: deviceflow.ErrorAccessDenied}, ExitCodeAuthFailed},
		{"timeout", &deviceflow.TimeoutError{Attempts: 180, Limit: 180}, ExitCodeAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestRootLogsInThenWatches(t *testing.T) {
	server := newFakeGitHub(t)
	env := newTestEnv(t, server, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- execute(ctx, env, out) }()

	waitFor(t, func() bool { return strings.Contains(out.String(), "Crash on startup") }, "notification was not printed")
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("root command did not stop after cancellation")
	}

	assert.Contains(t, out.String(), "enter the following code: WDJB-MJHT")
	assert.Contains(t, out.String(), "Access granted!")
	assert.Equal(t, "token gho_from_device_flow", server.authHeaders()[0])

	data, err := os.ReadFile(env.tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "gho_from_device_flow", string(data))
}

func TestInvalidLogLevel(t *testing.T) {
	env := newTestEnv(t, nil, "")
	err := execute(context.Background(), env, &bytes.Buffer{}, "auth", "status", "--log-level", "verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verbose")
}
