package arrow_client

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-dgemm/internal/bench"
	"github.com/23skdu/longbow-dgemm/internal/timing"
)

func sampleResults() []bench.Result {
	return []bench.Result{
		{
			Sample: timing.Sample{
				Size:             31,
				Iterations:       64,
				Attempts:         7,
				OptimizedElapsed: 120 * time.Millisecond,
				NaiveElapsed:     360 * time.Millisecond,
			},
			OptimizedKernel: "blocked",
			NaiveKernel:     "naive",
			OptimizedMflops: 1500,
			NaiveMflops:     500,
			Ratio:           3,
		},
		{
			Sample: timing.Sample{
				Size:             32,
				Iterations:       32,
				Attempts:         6,
				OptimizedElapsed: 100 * time.Millisecond,
				NaiveElapsed:     400 * time.Millisecond,
			},
			OptimizedKernel: "blocked",
			NaiveKernel:     "naive",
			OptimizedMflops: 2000,
			NaiveMflops:     500,
			Ratio:           4,
		},
	}
}

func checkResults(t *testing.T, got, want []bench.Result) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestNewFlightClient(t *testing.T) {
	client, err := NewFlightClient("grpc://localhost:3000")
	if err != nil {
		t.Fatalf("Failed to create FlightClient: %v", err)
	}
	if client.Addr() != "localhost:3000" {
		t.Errorf("expected scheme stripped, got %q", client.Addr())
	}

	if _, err := NewFlightClient(""); err == nil {
		t.Error("expected error for empty address")
	}
}

func TestDoPutReturnsErrorWhenNotConnected(t *testing.T) {
	client, _ := NewFlightClient("localhost:3000")

	err := client.DoPut(context.Background(), "", nil, sampleResults())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected 'not connected' error, got: %v", err)
	}
}

func TestBuildRecord(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	schema := ResultsSchema(map[string]string{"host": "bench01"})
	rec := BuildRecord(mem, schema, sampleResults())
	defer rec.Release()

	if rec.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", rec.NumRows())
	}
	if rec.NumCols() != int64(len(resultFields)) {
		t.Errorf("expected %d columns, got %d", len(resultFields), rec.NumCols())
	}

	got, err := DecodeRecord(rec)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	checkResults(t, got, sampleResults())
}

func TestBuildRecordEmpty(t *testing.T) {
	rec := BuildRecord(memory.NewGoAllocator(), ResultsSchema(nil), nil)
	defer rec.Release()

	if rec.NumRows() != 0 {
		t.Errorf("expected 0 rows, got %d", rec.NumRows())
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.arrow")
	md := map[string]string{"host": "bench01", "description": "Simple blocked dgemm."}

	if err := WriteFile(path, md, sampleResults()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, gotMD, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	checkResults(t, got, sampleResults())
	for k, v := range md {
		if gotMD[k] != v {
			t.Errorf("metadata %s: expected %q, got %q", k, v, gotMD[k])
		}
	}
}

func TestWriteFileBadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "results.arrow")
	if err := WriteFile(path, nil, sampleResults()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestMockFlightClient(t *testing.T) {
	m := NewMockFlightClient()
	ctx := context.Background()

	if err := m.DoPut(ctx, "", nil, sampleResults()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}

	var exp Exporter = m
	if err := exp.Connect(ctx); err != nil {
		t.Fatal(err)
	}
	md := map[string]string{"host": "bench01"}
	if err := exp.DoPut(ctx, "", md, sampleResults()); err != nil {
		t.Fatal(err)
	}
	md["host"] = "changed"

	stored := m.GetStoredData()
	up, ok := stored[DefaultPath]
	if !ok {
		t.Fatalf("expected upload under %q, got %v", DefaultPath, stored)
	}
	if up.Metadata["host"] != "bench01" {
		t.Errorf("metadata should be copied, got %q", up.Metadata["host"])
	}
	checkResults(t, up.Results, sampleResults())

	m.Reset()
	if len(m.GetStoredData()) != 0 {
		t.Error("expected empty store after Reset")
	}
	if err := exp.Close(); err != nil {
		t.Fatal(err)
	}
}

// captureServer records every DoPut it receives.
type captureServer struct {
	flight.BaseFlightServer

	mu       sync.Mutex
	path     string
	metadata map[string]string
	results  []bench.Result
}

func (s *captureServer) DoPut(stream flight.FlightService_DoPutServer) error {
	rdr, err := flight.NewRecordReader(stream)
	if err != nil {
		return err
	}
	defer rdr.Release()

	var rows []bench.Result
	for rdr.Next() {
		decoded, err := DecodeRecord(rdr.Record())
		if err != nil {
			return err
		}
		rows = append(rows, decoded...)
	}
	if err := rdr.Err(); err != nil {
		return err
	}

	md := make(map[string]string)
	meta := rdr.Schema().Metadata()
	for i, k := range meta.Keys() {
		md[k] = meta.Values()[i]
	}

	s.mu.Lock()
	if desc := rdr.LatestFlightDescriptor(); desc != nil {
		s.path = strings.Join(desc.Path, "/")
	}
	s.metadata = md
	s.results = rows
	s.mu.Unlock()

	return stream.Send(&flight.PutResult{})
}

func TestFlightClientDoPut(t *testing.T) {
	srv := flight.NewServerWithMiddleware(nil)
	capture := &captureServer{}
	if err := srv.Init("127.0.0.1:0"); err != nil {
		t.Fatalf("server init: %v", err)
	}
	srv.RegisterFlightService(capture)
	go srv.Serve()
	defer srv.Shutdown()

	client, err := NewFlightClient(srv.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()

	md := map[string]string{"host": "bench01"}
	if err := client.DoPut(ctx, "dgemm/run1", md, sampleResults()); err != nil {
		t.Fatalf("DoPut: %v", err)
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()
	if capture.path != "dgemm/run1" {
		t.Errorf("expected path dgemm/run1, got %q", capture.path)
	}
	if capture.metadata["host"] != "bench01" {
		t.Errorf("expected host metadata, got %v", capture.metadata)
	}
	checkResults(t, capture.results, sampleResults())
}
