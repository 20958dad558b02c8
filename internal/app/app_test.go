package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/livelog/internal/livelog"
)

type fakeServer struct {
	mu           sync.Mutex
	loginEnabled bool
	token        string
	files        []string
	filter       string
	lines        []livelog.LogLine
	tailCalls    int
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/api/login/enabled":
		fmt.Fprint(w, f.loginEnabled)
	case "/api/login":
		if r.URL.Query().Get("t") != f.token {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
	case "/api/list-files":
		_ = json.NewEncoder(w).Encode(f.files)
	case "/api/list-files/default-filter":
		fmt.Fprint(w, f.filter)
	case "/api/grouping/reset":
	case "/api/grouping":
		_ = json.NewEncoder(w).Encode([]livelog.Grouping{{Regex: "ERROR", Color: "red"}})
	case "/api/tail":
		f.tailCalls++
		out := []livelog.LogLine{}
		if r.URL.Query().Get("l") == "" {
			out = f.lines
		}
		_ = json.NewEncoder(w).Encode(out)
	default:
		http.NotFound(w, r)
	}
}

// testOptions writes a config for serverURL into a temp dir and points HOME
// there so nothing touches the real user files.
func testOptions(t *testing.T, serverURL string) Options {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfgPath := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf("server_url = %q\nlog_file = %q\npoll_interval_ms = 20\n",
		serverURL, filepath.Join(dir, "livelog.log"))
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return Options{
		ConfigPath: cfgPath,
		PrefsPath:  filepath.Join(dir, "prefs.toml"),
	}
}

func TestEnsureLoggedIn(t *testing.T) {
	srv := &fakeServer{loginEnabled: true, token: "secret"}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)

	client, err := livelog.NewClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	if err := ensureLoggedIn(ctx, client, ""); err == nil || !strings.Contains(err.Error(), "requires a login token") {
		t.Fatalf("missing token error = %v", err)
	}
	if err := ensureLoggedIn(ctx, client, "wrong"); err == nil || !strings.Contains(err.Error(), "login rejected") {
		t.Fatalf("bad token error = %v", err)
	}
	if err := ensureLoggedIn(ctx, client, "secret"); err != nil {
		t.Fatalf("good token error = %v", err)
	}

	srv.mu.Lock()
	srv.loginEnabled = false
	srv.mu.Unlock()
	if err := ensureLoggedIn(ctx, client, ""); err != nil {
		t.Fatalf("login disabled error = %v", err)
	}
}

func TestSetup_ServerUnavailable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	opts := testOptions(t, url)
	_, err := Setup(context.Background(), opts)
	if err == nil || !strings.Contains(err.Error(), "unavailable") {
		t.Fatalf("Setup error = %v, want unavailable", err)
	}
}

func TestSetup_OverridesConfig(t *testing.T) {
	server := httptest.NewServer(&fakeServer{})
	t.Cleanup(server.Close)

	opts := testOptions(t, "http://127.0.0.1:1/")
	opts.ServerURL = server.URL
	opts.PollInterval = time.Minute

	env, err := Setup(context.Background(), opts)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer env.Close()

	if env.Config.PollInterval != time.Minute {
		t.Errorf("PollInterval = %v, want 1m", env.Config.PollInterval)
	}
	if !strings.HasPrefix(env.Client.BaseURL(), server.URL) {
		t.Errorf("BaseURL = %q, want %q", env.Client.BaseURL(), server.URL)
	}
	if env.Session == nil {
		t.Fatal("Session is nil")
	}
}

func TestListFiles(t *testing.T) {
	server := httptest.NewServer(&fakeServer{
		files:  []string{"app.log", "db.log", "notes.txt"},
		filter: `\.log$`,
	})
	t.Cleanup(server.Close)
	opts := testOptions(t, server.URL)

	tests := []struct {
		name string
		list ListOptions
		want string
	}{
		{"server default filter", ListOptions{}, "app.log\ndb.log\n"},
		{"explicit filter", ListOptions{Filter: "txt"}, "notes.txt\n"},
		{"all", ListOptions{All: true}, "app.log\ndb.log\nnotes.txt\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := ListFiles(context.Background(), opts, tt.list, &out); err != nil {
				t.Fatalf("ListFiles: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestFollow_PrintsLinesOnce(t *testing.T) {
	srv := &fakeServer{lines: []livelog.LogLine{
		{Line: 1, Content: "started"},
		{Line: 2, Content: "ERROR failed"},
		{Line: 3, Content: "done"},
	}}
	server := httptest.NewServer(srv)
	t.Cleanup(server.Close)
	opts := testOptions(t, server.URL)
	opts.File = "app.log"

	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()

	var out syncBuffer
	if err := Follow(ctx, opts, "ERROR|done", &out); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	got := out.String()
	if strings.Contains(got, "started") {
		t.Errorf("output %q contains filtered line", got)
	}
	if strings.Count(got, "ERROR failed") != 1 || strings.Count(got, "done") != 1 {
		t.Errorf("output %q, want each matching line once", got)
	}
	srv.mu.Lock()
	calls := srv.tailCalls
	srv.mu.Unlock()
	if calls < 2 {
		t.Errorf("tail calls = %d, want the tail to keep polling", calls)
	}
}

func TestFollow_RequiresFile(t *testing.T) {
	if err := Follow(context.Background(), Options{}, "", &bytes.Buffer{}); err == nil {
		t.Fatal("Follow without file returned nil error")
	}
}

func TestShowLog(t *testing.T) {
	opts := testOptions(t, "http://127.0.0.1:1/")
	logPath := filepath.Join(os.Getenv("HOME"), "livelog.log")
	if err := os.WriteFile(logPath, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	var out bytes.Buffer
	if err := ShowLog(opts, 2, &out); err != nil {
		t.Fatalf("ShowLog: %v", err)
	}
	if out.String() != "two\nthree\n" {
		t.Errorf("output = %q", out.String())
	}
}

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
