package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/23skdu/longbow-dgemm/internal/bench"
	"github.com/23skdu/longbow-dgemm/internal/timing"
)

func TestProgress(t *testing.T) {
	hm := NewHealthMonitor(2)
	if s := hm.Status(); s.Status != StateStarting || s.Progress.TotalSizes != 2 {
		t.Errorf("unexpected initial status %+v", s)
	}

	hm.SizeStarted(31)
	if s := hm.Status(); s.Status != StateRunning || s.Progress.CurrentSize != 31 {
		t.Errorf("expected running at 31, got %+v", s)
	}

	hm.SizeDone(bench.Result{
		Sample:          timing.Sample{Size: 31, Iterations: 8},
		OptimizedMflops: 1500,
		NaiveMflops:     500,
		Ratio:           3,
	})
	s := hm.Status()
	if s.Progress.CompletedSizes != 1 || s.Progress.CurrentSize != 0 {
		t.Errorf("unexpected progress %+v", s.Progress)
	}
	if s.Progress.Last == nil || s.Progress.Last.Size != 31 || s.Progress.Last.Ratio != 3 {
		t.Errorf("unexpected last point %+v", s.Progress.Last)
	}

	hm.Finish(nil)
	if s := hm.Status(); s.Status != StateDone {
		t.Errorf("expected done, got %q", s.Status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	hm := NewHealthMonitor(1)
	srv := httptest.NewServer(hm.Handler())
	defer srv.Close()

	tests := []struct {
		path string
		fail error
		code int
	}{
		{"/health", nil, http.StatusOK},
		{"/healthz", nil, http.StatusOK},
		{"/health", errors.New("clock unavailable"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		if tt.fail != nil {
			hm.Finish(tt.fail)
		}
		resp, err := http.Get(srv.URL + tt.path)
		if err != nil {
			t.Fatal(err)
		}
		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()

		if resp.StatusCode != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.path, tt.code, resp.StatusCode)
		}
		if body["status"] == "" {
			t.Errorf("%s: missing status field", tt.path)
		}
	}
}

func TestStatusEndpoint(t *testing.T) {
	hm := NewHealthMonitor(3)
	hm.SizeStarted(97)
	hm.Finish(fmt.Errorf("size 97: %w", timing.ErrIterationCap))

	srv := httptest.NewServer(hm.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != StateFailed || !strings.Contains(status.Error, "iteration cap") {
		t.Errorf("unexpected status %+v", status)
	}
	if status.Progress.TotalSizes != 3 || status.Progress.CurrentSize != 97 {
		t.Errorf("unexpected progress %+v", status.Progress)
	}
	if status.System.NumCPU <= 0 {
		t.Errorf("expected cpu count, got %d", status.System.NumCPU)
	}
}

func TestStartStop(t *testing.T) {
	hm := NewHealthMonitor(1)
	if err := hm.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + hm.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := hm.Stop(ctx); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
