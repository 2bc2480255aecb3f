package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/worldcup-events/internal/logger"
	"github.com/pfrederiksen/worldcup-events/internal/match"
	"github.com/pfrederiksen/worldcup-events/internal/metrics"
	"github.com/pfrederiksen/worldcup-events/internal/notifier"
	"github.com/pfrederiksen/worldcup-events/internal/runner"
)

type fakeStatus struct {
	summary  *runner.Summary
	snapshot *match.Snapshot
}

func (f fakeStatus) LastSummary() *runner.Summary { return f.summary }
func (f fakeStatus) Snapshot() *match.Snapshot    { return f.snapshot }

func newTestServer(t *testing.T, status StatusSource) (*httptest.Server, *Hub) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink := metrics.NewPrometheusSink(reg)
	sink.RunCompleted(time.Second, "")

	log := logger.New(logger.LevelError, &bytes.Buffer{})
	hub := NewHub(log)
	s := New(Config{Version: "test", Status: status, Hub: hub, Gatherer: reg, Logger: log})

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		hub.closeAll()
		ts.Close()
	})
	return ts, hub
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func TestHealthAndStatus(t *testing.T) {
	summary := &runner.Summary{RunID: "run-1", Notified: 2, Saved: true}
	ts, _ := newTestServer(t, fakeStatus{summary: summary})

	var health map[string]interface{}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/healthz", &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "test", health["version"])

	var status struct {
		LastRun runner.Summary `json:"lastRun"`
		Clients int            `json:"clients"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/status", &status))
	assert.Equal(t, "run-1", status.LastRun.RunID)
	assert.Equal(t, 2, status.LastRun.Notified)
	assert.Equal(t, 0, status.Clients)
}

func TestSnapshotEndpoint(t *testing.T) {
	t.Run("before first run", func(t *testing.T) {
		ts, _ := newTestServer(t, fakeStatus{})
		var body map[string]string
		assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/snapshot", &body))
	})

	t.Run("after a run", func(t *testing.T) {
		snapshot := match.NewSnapshot()
		snapshot.ETag["M1"] = "t1"
		ts, _ := newTestServer(t, fakeStatus{snapshot: snapshot})

		var got match.Snapshot
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/snapshot", &got))
		assert.Equal(t, "t1", got.ETag["M1"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `worldcup_runs_total{outcome="success"} 1`)
}

func TestCORS(t *testing.T) {
	ts, _ := newTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set("Origin", "https://example.com")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var welcome FeedMessage
	require.NoError(t, conn.ReadJSON(&welcome))
	require.Equal(t, "connected", welcome.Type)
	return conn
}

func readFeed(t *testing.T, conn *websocket.Conn) FeedMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg FeedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketFeed(t *testing.T) {
	ts, hub := newTestServer(t, nil)
	conn := dial(t, ts)
	assert.Equal(t, 1, hub.Clients())

	var n notifier.Notifier = hub
	msg := notifier.Message{Subject: "⚡ GOOOOAL Ecuador", Detail: "Enner VALENCIA (16') 0-1", MatchID: "M1"}
	require.NoError(t, n.Notify(context.Background(), msg))

	got := readFeed(t, conn)
	assert.Equal(t, "notification", got.Type)
	require.NotNil(t, got.Message)
	assert.Equal(t, msg, *got.Message)
}

func TestWebSocketSubscription(t *testing.T) {
	ts, hub := newTestServer(t, nil)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteJSON(subscription{Type: "subscribe", MatchIDs: []string{"M2"}}))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for c := range hub.clients {
			if !c.wants("M1") {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	require.NoError(t, hub.Notify(ctx, notifier.Message{Subject: "first", MatchID: "M1"}))
	require.NoError(t, hub.Notify(ctx, notifier.Message{Subject: "second", MatchID: "M2"}))

	got := readFeed(t, conn)
	assert.Equal(t, "second", got.Message.Subject)
}

func TestHubDropsDisconnectedClients(t *testing.T) {
	ts, hub := newTestServer(t, nil)
	conn := dial(t, ts)
	require.Equal(t, 1, hub.Clients())

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
