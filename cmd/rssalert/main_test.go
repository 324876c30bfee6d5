package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rssalert/pkg/config"
	"github.com/umputun/rssalert/pkg/locker"
)

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	pub := time.Now().UTC().Add(-time.Hour).Format(time.RFC1123Z)
	rss := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>status</title>
<item><title>Elevated error rates</title><description>We are investigating</description>
<guid>incident-1</guid><pubDate>%s</pubDate></item>
</channel></rss>`, pub)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rss))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func writeConfig(t *testing.T, dir, feedURL string) string {
	t.Helper()
	cfg := fmt.Sprintf(`
timeout: 2s
storage:
  type: file
  file:
    path: %[1]s/state
locking:
  type: file
  file:
    path: %[1]s/lock
outputs:
  log:
    enabled: true
feedgroups:
  - name: Cloud
    feeds:
      - name: status
        url: %[2]s/rss
`, dir, feedURL)
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func TestRun_MissingConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: []string{"non-existent-config.yml"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")
}

func TestRun_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid-config.yml")
	require.NoError(t, os.WriteFile(path, []byte("invalid: yaml: content: ["), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: []string{path}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")
}

func TestRun_MissingEnvFile(t *testing.T) {
	err := run(context.Background(), Opts{EnvFile: filepath.Join(t.TempDir(), "nope.env")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load env file")
}

func TestRun_SingleRun(t *testing.T) {
	dir := t.TempDir()
	ts := feedServer(t)
	path := writeConfig(t, dir, ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, run(ctx, Opts{Config: []string{path}}))

	files, err := os.ReadDir(filepath.Join(dir, "state"))
	require.NoError(t, err)
	assert.Len(t, files, 1, "cursor stored")

	locks, err := os.ReadDir(filepath.Join(dir, "lock"))
	require.NoError(t, err)
	assert.Empty(t, locks, "lock released")
}

func TestRun_LockHeld(t *testing.T) {
	dir := t.TempDir()
	ts := feedServer(t)
	path := writeConfig(t, dir, ts.URL)

	l, err := locker.NewFile(filepath.Join(dir, "lock"))
	require.NoError(t, err)
	ok, err := l.Acquire(context.Background(), "rssalert-main", "other-host;1", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	err = run(context.Background(), Opts{Config: []string{path}})
	require.ErrorIs(t, err, locker.ErrNotAcquired)
	assert.Contains(t, err.Error(), "another run is in progress")

	_, err = os.Stat(filepath.Join(dir, "state"))
	if err == nil {
		files, rerr := os.ReadDir(filepath.Join(dir, "state"))
		require.NoError(t, rerr)
		assert.Empty(t, files, "no state written")
	}
}

func TestRun_Periodic(t *testing.T) {
	dir := t.TempDir()
	ts := feedServer(t)
	path := writeConfig(t, dir, ts.URL)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, Opts{Config: []string{path}, Every: 50 * time.Millisecond, Listen: fmt.Sprintf("127.0.0.1:%d", port)})
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/status", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("run didn't stop")
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := &config.Config{Timeout: 10 * time.Second, Server: config.ServerConfig{Listen: ":8080"}}
	applyOverrides(cfg, Opts{})
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.False(t, cfg.NoNotify)
	assert.Equal(t, ":8080", cfg.Server.Listen)

	applyOverrides(cfg, Opts{FeedTimeout: 3 * time.Second, NoNotify: true, Listen: "127.0.0.1:9090"})
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.True(t, cfg.NoNotify)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Listen)
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name       string
		opts       Opts
		configured string
		want       string
	}{
		{name: "default", want: "info"},
		{name: "configured", configured: "error", want: "error"},
		{name: "verbose wins", opts: Opts{Verbose: []bool{true}}, configured: "error", want: "debug"},
		{name: "dbg wins", opts: Opts{Debug: true}, configured: "warn", want: "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logLevel(tt.opts, tt.configured))
		})
	}
}
