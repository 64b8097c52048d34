package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"

	"github.com/ArinaShifrina/PZ4/internal/config"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func smallScenario(steps int) *config.Config {
	cfg := config.GetPreset("vacuum")
	cfg.X = 0.4
	cfg.Steps = steps
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	s := New(cfg)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(func() {
		s.Stop()
		s.Wait()
		s.Hub().Close()
		ts.Close()
	})
	return s, ts
}

func post(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthAndConfig(t *testing.T) {
	_, ts := newTestServer(t, smallScenario(10))

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/config")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var cfg config.Config
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Name != "vacuum" || cfg.Steps != 10 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestRunBusyAndStop(t *testing.T) {
	cfg := smallScenario(5_000_000)
	cfg.Probes = nil
	s, ts := newTestServer(t, cfg)

	if resp := post(t, ts.URL+"/api/stop"); resp.StatusCode != http.StatusConflict {
		t.Errorf("stop while idle: status %d", resp.StatusCode)
	}
	if resp := post(t, ts.URL+"/api/run"); resp.StatusCode != http.StatusAccepted {
		t.Fatalf("run: status %d", resp.StatusCode)
	}
	if resp := post(t, ts.URL+"/api/run"); resp.StatusCode != http.StatusConflict {
		t.Errorf("second run: status %d", resp.StatusCode)
	}
	if resp := post(t, ts.URL+"/api/stop"); resp.StatusCode != http.StatusOK {
		t.Errorf("stop: status %d", resp.StatusCode)
	}
	s.Wait()

	st := s.Status()
	if st.Running || st.Runs != 1 {
		t.Errorf("unexpected status %+v", st)
	}
	if !strings.Contains(st.Error, "context canceled") {
		t.Errorf("expected cancellation error, got %q", st.Error)
	}
	if got := testutil.ToFloat64(s.metrics.runsTotal.WithLabelValues("cancelled")); got != 1 {
		t.Errorf("cancelled runs = %g, want 1", got)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := smallScenario(10)
	cfg.SourcePos = 0
	_, ts := newTestServer(t, cfg)

	if resp := post(t, ts.URL+"/api/run"); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status %d, want 422", resp.StatusCode)
	}
}

func TestWebsocketStream(t *testing.T) {
	s, ts := newTestServer(t, smallScenario(200))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var first Msg
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if first.Type != TypeLayout {
		t.Fatalf("first message %q, want layout", first.Type)
	}

	if err := conn.WriteJSON(Msg{Type: TypeStart}); err != nil {
		t.Fatalf("send start: %v", err)
	}

	seen := map[string]int{}
	var layout Msg
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for seen[TypeStopped] == 0 {
		var msg Msg
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v (seen %v)", err, seen)
		}
		seen[msg.Type]++
		switch msg.Type {
		case TypeLayout:
			layout = msg
		case TypeFrame:
			if len(msg.Field) != 100 {
				t.Fatalf("frame has %d samples, want 100", len(msg.Field))
			}
		}
	}

	if seen[TypeStarted] != 1 || seen[TypeFrame] == 0 {
		t.Errorf("unexpected message counts %v", seen)
	}
	if len(layout.Probes) != 2 || len(layout.Sources) != 1 || layout.Sources[0] != 50 {
		t.Errorf("unexpected layout %+v", layout)
	}

	s.Wait()
	if got := testutil.ToFloat64(s.metrics.runsTotal.WithLabelValues("completed")); got != 1 {
		t.Errorf("completed runs = %g, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.stepsTotal); got != 200 {
		t.Errorf("steps = %g, want 200", got)
	}
	if got := testutil.ToFloat64(s.metrics.clients); got != 1 {
		t.Errorf("clients = %g, want 1", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, smallScenario(10))

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"fdtd_steps_total", "fdtd_ws_clients", "fdtd_run_duration_seconds"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics missing %s", name)
		}
	}
}
