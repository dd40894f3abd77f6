package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/23skdu/longbow-dgemm/internal/bench"
	"github.com/23skdu/longbow-dgemm/internal/logger"
)

// Run states reported by /health and /status.
const (
	StateStarting = "starting"
	StateRunning  = "running"
	StateDone     = "done"
	StateFailed   = "failed"
)

// HealthStatus is the /status document.
type HealthStatus struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    time.Duration `json:"uptime"`
	System    SystemInfo    `json:"system"`
	Progress  ProgressInfo  `json:"progress"`
	Error     string        `json:"error,omitempty"`
}

// SystemInfo contains system-level information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	NumCPU       int    `json:"num_cpu"`
	MemoryMB     int    `json:"memory_mb"`
	MemoryUsedMB int    `json:"memory_used_mb"`
	BufferBytes  int64  `json:"buffer_bytes"`
}

type ProgressInfo struct {
	TotalSizes     int        `json:"total_sizes"`
	CompletedSizes int        `json:"completed_sizes"`
	CurrentSize    int        `json:"current_size,omitempty"`
	Last           *SizePoint `json:"last,omitempty"`
}

// SizePoint summarizes one finished size.
type SizePoint struct {
	Size            int     `json:"size"`
	Iterations      int     `json:"iterations"`
	OptimizedMflops float64 `json:"mflops"`
	NaiveMflops     float64 `json:"mflops_naive"`
	Ratio           float64 `json:"ratio"`
}

// HealthMonitor tracks benchmark progress and serves it over HTTP next to
// the Prometheus handler. It implements bench.Observer.
type HealthMonitor struct {
	startTime time.Time
	server    *http.Server
	ln        net.Listener

	mu      sync.RWMutex
	state   string
	total   int
	current int
	done    int
	last    *SizePoint
	failure string
}

func NewHealthMonitor(totalSizes int) *HealthMonitor {
	return &HealthMonitor{
		startTime: time.Now(),
		state:     StateStarting,
		total:     totalSizes,
	}
}

// Handler routes /health, /healthz, /status and /metrics.
func (hm *HealthMonitor) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hm.handleHealth)
	mux.HandleFunc("/healthz", hm.handleHealth) // Kubernetes compatibility
	mux.HandleFunc("/status", hm.handleDetailedStatus)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start listens on addr and serves in the background. Addr reports the
// bound address, which matters when addr ends in :0.
func (hm *HealthMonitor) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	hm.ln = ln
	hm.server = &http.Server{
		Handler:      hm.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Health monitor serving", "addr", ln.Addr().String())
		if err := hm.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Health monitor error", "error", err)
		}
	}()
	return nil
}

func (hm *HealthMonitor) Addr() string {
	if hm.ln == nil {
		return ""
	}
	return hm.ln.Addr().String()
}

func (hm *HealthMonitor) Stop(ctx context.Context) error {
	if hm.server != nil {
		return hm.server.Shutdown(ctx)
	}
	return nil
}

func (hm *HealthMonitor) SizeStarted(n int) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.state = StateRunning
	hm.current = n
}

func (hm *HealthMonitor) SizeDone(r bench.Result) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.done++
	hm.current = 0
	hm.last = &SizePoint{
		Size:            r.Size,
		Iterations:      r.Iterations,
		OptimizedMflops: r.OptimizedMflops,
		NaiveMflops:     r.NaiveMflops,
		Ratio:           r.Ratio,
	}
}

// Finish records the outcome of the run. A nil err marks it done.
func (hm *HealthMonitor) Finish(err error) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	if err != nil {
		hm.state = StateFailed
		hm.failure = err.Error()
		return
	}
	hm.state = StateDone
	hm.current = 0
}

func (hm *HealthMonitor) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := hm.Status()

	w.Header().Set("Content-Type", "application/json")
	if status.Status == StateFailed {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(map[string]string{
		"status":    status.Status,
		"timestamp": status.Timestamp.Format(time.RFC3339),
	})
}

func (hm *HealthMonitor) handleDetailedStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(hm.Status())
}

// Status snapshots the current state.
func (hm *HealthMonitor) Status() HealthStatus {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	var last *SizePoint
	if hm.last != nil {
		p := *hm.last
		last = &p
	}
	return HealthStatus{
		Status:    hm.state,
		Timestamp: time.Now(),
		Uptime:    time.Since(hm.startTime),
		System:    systemInfo(),
		Progress: ProgressInfo{
			TotalSizes:     hm.total,
			CompletedSizes: hm.done,
			CurrentSize:    hm.current,
			Last:           last,
		},
		Error: hm.failure,
	}
}

func systemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		NumCPU:       runtime.NumCPU(),
		MemoryMB:     int(m.Sys / 1024 / 1024),
		MemoryUsedMB: int(m.Alloc / 1024 / 1024),
		BufferBytes:  bench.AllocatedBytes(),
	}
}
