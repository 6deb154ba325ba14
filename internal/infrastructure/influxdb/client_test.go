package influxdb

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-autopilot/internal/autopilot"
	"github.com/nerrad567/gray-logic-autopilot/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-autopilot/internal/session"
)

// fakeInflux answers /ping and records line protocol posted to /api/v2/write.
type fakeInflux struct {
	*httptest.Server
	mu     sync.Mutex
	lines  []string
	status int
}

func newFakeInflux(t *testing.T) *fakeInflux {
	t.Helper()
	f := &fakeInflux{status: http.StatusNoContent}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/write") {
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			for line := range strings.SplitSeq(strings.TrimSpace(string(body)), "\n") {
				f.lines = append(f.lines, line)
			}
			status := f.status
			f.mu.Unlock()
			if status != http.StatusNoContent {
				http.Error(w, `{"code":"invalid","message":"rejected"}`, status)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeInflux) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "graylogic",
		Bucket:        "autopilot",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func connect(t *testing.T, f *fakeInflux) *Client {
	t.Helper()
	c, err := Connect(testConfig(f.URL), "home")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	if _, err := Connect(cfg, ""); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	f := newFakeInflux(t)
	url := f.URL
	f.Close()

	if _, err := Connect(testConfig(url), ""); !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	f := newFakeInflux(t)
	cfg := testConfig(f.URL)
	cfg.BatchSize = -5
	cfg.FlushInterval = 0

	c, err := Connect(cfg, "")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()
	if !c.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFakeInflux(t)
	c := connect(t, f)

	if err := c.HealthCheck(t.Context()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}

	c.Close()
	if err := c.HealthCheck(t.Context()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck after Close = %v, want ErrNotConnected", err)
	}
}

func TestWriteAutopilotEvent(t *testing.T) {
	f := newFakeInflux(t)
	c := connect(t, f)

	c.WriteAutopilotEvent(autopilot.EventStarted, 3)
	c.Flush()

	lines := f.written()
	if len(lines) != 1 {
		t.Fatalf("wrote %d lines, want 1: %v", len(lines), lines)
	}
	for _, want := range []string{"autopilot,", "event=started", "site=home", "modulations=3i"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
}

func TestBroadcast(t *testing.T) {
	f := newFakeInflux(t)
	c := connect(t, f)

	c.Broadcast("other.channel", autopilot.Status{Enabled: true})
	c.Broadcast(session.StateChannel, "not a status")
	c.Broadcast(session.StateChannel, autopilot.Status{Enabled: true, Oscillators: 2, Bindings: 5})
	c.Flush()

	lines := f.written()
	if len(lines) != 1 {
		t.Fatalf("wrote %d lines, want 1: %v", len(lines), lines)
	}
	for _, want := range []string{"autopilot_state,", "enabled=true", "oscillators=2i", "bindings=5i"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
}

func TestWriteFailureReported(t *testing.T) {
	f := newFakeInflux(t)
	c := connect(t, f)

	f.mu.Lock()
	f.status = http.StatusBadRequest
	f.mu.Unlock()

	errs := make(chan error, 1)
	c.SetOnError(func(err error) {
		select {
		case errs <- err:
		default:
		}
	})

	c.WriteAutopilotEvent(autopilot.EventEnabled, 0)
	c.Flush()

	select {
	case err := <-errs:
		if !errors.Is(err, ErrWriteFailed) {
			t.Errorf("callback error = %v, want ErrWriteFailed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("write error not reported")
	}
}

func TestClosedClientDropsWrites(t *testing.T) {
	var c Client
	c.WriteAutopilotEvent(autopilot.EventEnabled, 0)
	c.Broadcast(session.StateChannel, autopilot.Status{})
	c.Flush()
	if err := c.Close(); err != nil {
		t.Errorf("Close on zero client = %v", err)
	}
}

func TestEventPoint_NoSite(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	line := write.PointToLineProtocol(eventPoint("", autopilot.EventDisabled, 0, ts), time.Second)

	if strings.Contains(line, "site=") {
		t.Errorf("line %q has a site tag", line)
	}
	if !strings.HasPrefix(line, "autopilot,event=disabled modulations=0i 1700000000") {
		t.Errorf("line = %q", line)
	}
}
