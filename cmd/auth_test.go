package cmd

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthLogin(t *testing.T) {
	server := newFakeGitHub(t)
	env := newTestEnv(t, server, "")

	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), env, &out, "auth", "login"))

	assert.Contains(t, out.String(),
		"Please open URL https://github.com/login/device in your browser and enter the following code: WDJB-MJHT\n")
	assert.Contains(t, out.String(), "Access granted!")
	assert.NotContains(t, out.String(), "gho_from_device_flow")

	data, err := os.ReadFile(env.tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "gho_from_device_flow", string(data))
	assert.Equal(t, int32(1), server.deviceCalls.Load())
	assert.Equal(t, int32(1), server.tokenCalls.Load())

	// A stored token short-circuits the device flow.
	out.Reset()
	require.NoError(t, execute(context.Background(), env, &out, "auth", "login"))
	assert.Equal(t, "Previous token was found\n", out.String())
	assert.Equal(t, int32(1), server.deviceCalls.Load())

	// --force runs it again.
	out.Reset()
	require.NoError(t, execute(context.Background(), env, &out, "auth", "login", "--force", "--quiet"))
	assert.NotContains(t, out.String(), "Access granted!")
	assert.Contains(t, out.String(), "WDJB-MJHT")
	assert.Equal(t, int32(2), server.deviceCalls.Load())
}

func TestAuthLogin_Failures(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		wantCode  int
		wantError string
	}{
		{
			name:      "access denied",
			answer:    `{"error":"access_denied","error_description":"The authorization request was denied."}`,
			wantCode:  ExitCodeAuthFailed,
			wantError: "The authorization request was denied.",
		},
		{
			name:      "expired",
			answer:    `{"error":"expired_token","error_description":"The device_code has expired."}`,
			wantCode:  ExitCodeAuthFailed,
			wantError: "The device_code has expired.",
		},
		{
			name:      "malformed",
			answer:    `{"unexpected":true}`,
			wantCode:  ExitCodeError,
			wantError: "unexpected response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newFakeGitHub(t)
			server.tokenAnswer = tt.answer
			env := newTestEnv(t, server, "")

			var out bytes.Buffer
			err := execute(context.Background(), env, &out, "auth", "login")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantError)
			assert.Equal(t, tt.wantCode, getExitCode(err))

			_, statErr := os.Stat(env.tokenPath)
			assert.True(t, os.IsNotExist(statErr), "no token may be stored after a failed login")
		})
	}
}

func TestAuthLogout(t *testing.T) {
	env := newTestEnv(t, nil, "")
	env.writeToken(t, "gho_old")

	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), env, &out, "auth", "logout"))
	assert.Contains(t, out.String(), "Logged out")

	_, err := os.Stat(env.tokenPath)
	assert.True(t, os.IsNotExist(err))

	// Logging out twice is fine.
	require.NoError(t, execute(context.Background(), env, &out, "auth", "logout"))
}

func TestAuthStatus(t *testing.T) {
	t.Run("no token", func(t *testing.T) {
		env := newTestEnv(t, nil, "")
		var out bytes.Buffer
		err := execute(context.Background(), env, &out, "auth", "status")
		require.Error(t, err)
		assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
		assert.Contains(t, out.String(), "Not authenticated")
	})

	t.Run("stored", func(t *testing.T) {
		env := newTestEnv(t, nil, "")
		env.writeToken(t, "gho_abc")
		var out bytes.Buffer
		require.NoError(t, execute(context.Background(), env, &out, "auth", "status"))
		assert.Contains(t, out.String(), env.tokenPath)
		assert.Contains(t, out.String(), "Token stored")
	})

	t.Run("verified", func(t *testing.T) {
		server := newFakeGitHub(t)
		env := newTestEnv(t, server, "")
		env.writeToken(t, "gho_abc")
		var out bytes.Buffer
		require.NoError(t, execute(context.Background(), env, &out, "auth", "status", "--verify"))
		assert.Contains(t, out.String(), "Authenticated")
		assert.Equal(t, []string{"token gho_abc"}, server.authHeaders())
	})

	t.Run("rejected", func(t *testing.T) {
		server := newFakeGitHub(t)
		server.notifyStatus = 401
		env := newTestEnv(t, server, "")
		env.writeToken(t, "gho_revoked")
		var out bytes.Buffer
		err := execute(context.Background(), env, &out, "auth", "status", "--verify")
		require.Error(t, err)
		assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
		assert.Contains(t, out.String(), "Token rejected by GitHub")
	})
}

func TestAuthLoginWithToken(t *testing.T) {
	env := newTestEnv(t, nil, "")
	env.writeToken(t, "gho_old")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("  ghp_pasted_token\n"))
	root.SetArgs([]string{"auth", "login", "--with-token", "--config", env.configPath})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "Token stored")
	data, err := os.ReadFile(env.tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "ghp_pasted_token", string(data))
}

func TestAuthLoginWithEmptyToken(t *testing.T) {
	env := newTestEnv(t, nil, "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader("\n"))
	root.SetArgs([]string{"auth", "login", "--with-token", "--config", env.configPath})
	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, ExitCodeError, getExitCode(err))

	_, statErr := os.Stat(env.tokenPath)
	assert.True(t, os.IsNotExist(statErr))
}
