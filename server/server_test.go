package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/rssalert/pkg/locker"
	"github.com/umputun/rssalert/pkg/scheduler"
	"github.com/umputun/rssalert/server/mocks"
)

var lastRun = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *mocks.ConfigProviderMock {
	return &mocks.ConfigProviderMock{
		GetServerConfigFunc: func() (string, time.Duration) { return ":8080", 30 * time.Second },
	}
}

func testScheduler() *mocks.SchedulerMock {
	return &mocks.SchedulerMock{
		RunOnceFunc: func(ctx context.Context) error { return nil },
		StatusFunc: func() scheduler.Status {
			return scheduler.Status{
				LastRun:    lastRun,
				Runs:       3,
				Skipped:    1,
				FeedsTotal: 2,
				Feeds: map[string]scheduler.Result{
					"Cloud-gcp": {Feed: "Cloud-gcp", Entries: 5},
					"Cloud-aws": {Feed: "Cloud-aws", Entries: 10, Alerts: 2},
				},
			}
		},
	}
}

func TestServer_New(t *testing.T) {
	srv := New(testConfig(), testScheduler(), "1.0.0", false)
	assert.NotNil(t, srv)
	assert.Equal(t, "1.0.0", srv.version)
	assert.False(t, srv.debug)
}

func TestServer_Run(t *testing.T) {
	// find free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	cfg := &mocks.ConfigProviderMock{
		GetServerConfigFunc: func() (string, time.Duration) {
			return fmt.Sprintf("127.0.0.1:%d", port), 30 * time.Second
		},
	}
	srv := New(cfg, testScheduler(), "1.0.0", false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/ping", port))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server didn't stop")
	}
}

func TestServer_statusHandler(t *testing.T) {
	srv := New(testConfig(), testScheduler(), "1.2.3", false)

	req := httptest.NewRequest("GET", "/api/v1/status", http.NoBody)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "rssalert", w.Header().Get("App-Name"))

	var status statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, lastRun, status.LastRun)
	assert.Equal(t, 3, status.Runs)
	assert.Equal(t, 1, status.Skipped)
	assert.Equal(t, 2, status.Feeds)
	assert.False(t, status.Time.IsZero())
}

func TestServer_feedsHandler(t *testing.T) {
	srv := New(testConfig(), testScheduler(), "1.2.3", false)

	req := httptest.NewRequest("GET", "/api/v1/feeds", http.NoBody)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var res []scheduler.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res, 2)
	assert.Equal(t, "Cloud-aws", res[0].Feed)
	assert.Equal(t, 2, res[0].Alerts)
	assert.Equal(t, "Cloud-gcp", res[1].Feed)
}

func TestServer_runHandler(t *testing.T) {
	tests := []struct {
		name     string
		runErr   error
		wantCode int
		wantErr  string
	}{
		{name: "ok", wantCode: http.StatusOK},
		{name: "lock held", runErr: locker.ErrNotAcquired, wantCode: http.StatusConflict, wantErr: "lock not acquired"},
		{name: "failed", runErr: errors.New("acquire lock: backend down"), wantCode: http.StatusInternalServerError,
			wantErr: "acquire lock: backend down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := testScheduler()
			sched.RunOnceFunc = func(ctx context.Context) error { return tt.runErr }
			srv := New(testConfig(), sched, "1.2.3", false)

			req := httptest.NewRequest("POST", "/api/v1/run", http.NoBody)
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Len(t, sched.RunOnceCalls(), 1)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, body["error"])
				return
			}
			assert.Equal(t, "ok", body["status"])
		})
	}

	t.Run("get not allowed", func(t *testing.T) {
		sched := testScheduler()
		srv := New(testConfig(), sched, "1.2.3", false)
		req := httptest.NewRequest("GET", "/api/v1/run", http.NoBody)
		w := httptest.NewRecorder()
		srv.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Empty(t, sched.RunOnceCalls())
	})
}

func TestRenderError(t *testing.T) {
	w := httptest.NewRecorder()
	renderError(w, httptest.NewRequest("GET", "/", http.NoBody), nil, http.StatusBadRequest)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"unknown error"}`, w.Body.String())
}
