// Package arrow_client exports benchmark results as Arrow record batches,
// either to an IPC file or to a Flight endpoint via DoPut.
package arrow_client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/23skdu/longbow-dgemm/internal/bench"
	"github.com/23skdu/longbow-dgemm/internal/logger"
)

// DefaultPath is the descriptor path used when none is given.
const DefaultPath = "dgemm/results"

var ErrNotConnected = errors.New("client not connected, call Connect() first")

// Exporter sends a finished run somewhere.
type Exporter interface {
	Connect(ctx context.Context) error
	DoPut(ctx context.Context, path string, metadata map[string]string, results []bench.Result) error
	Close() error
}

// FlightClient wraps Apache Arrow Flight for results transport
type FlightClient struct {
	client  flight.Client
	addr    string
	timeout time.Duration
}

// NewFlightClient creates a client for addr (host:port). Connect must be
// called before DoPut.
func NewFlightClient(addr string) (*FlightClient, error) {
	addr = strings.TrimPrefix(addr, "grpc://")
	if addr == "" {
		return nil, fmt.Errorf("flight address is empty")
	}
	return &FlightClient{
		addr:    addr,
		timeout: 30 * time.Second,
	}, nil
}

func (fc *FlightClient) Addr() string { return fc.addr }

// Connect establishes connection to Flight server
func (fc *FlightClient) Connect(ctx context.Context) error {
	client, err := flight.NewClientWithMiddleware(fc.addr, nil, nil,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to create Flight client: %w", err)
	}
	fc.client = client
	return nil
}

// Close disconnects from Flight server
func (fc *FlightClient) Close() error {
	if fc.client == nil {
		return nil
	}
	err := fc.client.Close()
	fc.client = nil
	return err
}

// DoPut streams results as one record batch under a PATH descriptor and
// waits for the server to finish the stream.
func (fc *FlightClient) DoPut(ctx context.Context, path string, metadata map[string]string, results []bench.Result) error {
	if fc.client == nil {
		return ErrNotConnected
	}
	if path == "" {
		path = DefaultPath
	}

	ctx, cancel := context.WithTimeout(ctx, fc.timeout)
	defer cancel()

	stream, err := fc.client.DoPut(ctx)
	if err != nil {
		return fmt.Errorf("failed to open DoPut stream: %w", err)
	}

	mem := memory.NewGoAllocator()
	schema := ResultsSchema(metadata)
	rec := BuildRecord(mem, schema, results)
	defer rec.Release()

	w := flight.NewRecordWriter(stream, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	w.SetFlightDescriptor(&flight.FlightDescriptor{
		Type: flight.DescriptorPATH,
		Path: strings.Split(path, "/"),
	})
	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("failed to close send: %w", err)
	}

	for {
		if _, err := stream.Recv(); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("DoPut failed: %w", err)
		}
	}

	logger.Log.Info("results exported", "addr", fc.addr, "path", path, "rows", len(results))
	return nil
}
