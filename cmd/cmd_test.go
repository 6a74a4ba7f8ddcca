package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeGitHub serves the device flow endpoints and GET /notifications.
type fakeGitHub struct {
	*httptest.Server

	tokenAnswer   string
	notifyStatus  int
	notifications string

	deviceCalls atomic.Int32
	tokenCalls  atomic.Int32
	notifyCalls atomic.Int32

	mu   sync.Mutex
	auth []string
}

func newFakeGitHub(t *testing.T) *fakeGitHub {
	t.Helper()
	f := &fakeGitHub{
		tokenAnswer:  `{"access_token":"gho_from_device_flow","token_type":"bearer","scope":"notifications"}`,
		notifyStatus: http.StatusOK,
		notifications: `[{"id":"1","reason":"mention","unread":true,
			"subject":{"title":"Crash on startup","type":"Issue","url":"https://api.github.com/repos/octo/hello/issues/5","latest_comment_url":null},
			"repository":{"full_name":"octo/hello"}}]`,
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeGitHub) handle(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/login/device/code":
		f.deviceCalls.Add(1)
		io.WriteString(w, `{"device_code":"dc-1","user_code":"WDJB-MJHT","verification_uri":"https://github.com/login/device","expires_in":900,"interval":1}`)
	case "/login/oauth/access_token":
		f.tokenCalls.Add(1)
		io.WriteString(w, f.tokenAnswer)
	case "/notifications":
		n := f.notifyCalls.Add(1)
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()

		w.Header().Set("X-Poll-Interval", "1")
		w.WriteHeader(f.notifyStatus)
		if f.notifyStatus != http.StatusOK {
			io.WriteString(w, `{"message":"Bad credentials"}`)
			return
		}
		if n == 1 {
			io.WriteString(w, f.notifications)
			return
		}
		io.WriteString(w, `[]`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGitHub) authHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auth...)
}

type testEnv struct {
	dir        string
	configPath string
	tokenPath  string
	historyDB  string
}

// newTestEnv writes a config file pointing every endpoint at server.
func newTestEnv(t *testing.T, server *fakeGitHub, extra string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		tokenPath:  filepath.Join(dir, "ghnotifierrc"),
		historyDB:  filepath.Join(dir, "history.db"),
	}

	baseURL := "http://127.0.0.1:1"
	if server != nil {
		baseURL = server.URL
	}
	content := fmt.Sprintf(`auth:
  device_code_url: %[1]s/login/device/code
  token_url: %[1]s/login/oauth/access_token
  default_interval: 10ms
api:
  base_url: %[1]s
  timeout: 5s
token:
  path: %[2]s
history:
  enabled: true
  path: %[3]s
sink:
  console: true
  desktop: false
log:
  level: error
%[4]s`, baseURL, env.tokenPath, env.historyDB, extra)
	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0600))
	return env
}

func (e *testEnv) writeToken(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, os.WriteFile(e.tokenPath, []byte(token+"\n"), 0600))
}

// syncBuffer is a bytes.Buffer safe for concurrent writers and readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// execute runs the CLI with args plus --config.
func execute(ctx context.Context, env *testEnv, out io.Writer, args ...string) error {
	root := newRootCmd()
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--config", env.configPath))
	return root.ExecuteContext(ctx)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal(msg)
}
