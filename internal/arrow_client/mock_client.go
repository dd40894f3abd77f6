package arrow_client

import (
	"context"
	"sync"

	"github.com/23skdu/longbow-dgemm/internal/bench"
)

// Upload is one DoPut received by MockFlightClient.
type Upload struct {
	Metadata map[string]string
	Results  []bench.Result
}

// MockFlightClient keeps uploads in memory, keyed by path.
type MockFlightClient struct {
	mu        sync.RWMutex
	connected bool
	data      map[string]Upload
}

func NewMockFlightClient() *MockFlightClient {
	return &MockFlightClient{
		data: make(map[string]Upload),
	}
}

func (m *MockFlightClient) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *MockFlightClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// DoPut stores a copy of results under path.
func (m *MockFlightClient) DoPut(ctx context.Context, path string, metadata map[string]string, results []bench.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}
	if path == "" {
		path = DefaultPath
	}

	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	m.data[path] = Upload{
		Metadata: md,
		Results:  append([]bench.Result(nil), results...),
	}
	return nil
}

// GetStoredData returns all stored uploads (for testing)
func (m *MockFlightClient) GetStoredData() map[string]Upload {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]Upload, len(m.data))
	for k, v := range m.data {
		result[k] = v
	}
	return result
}

func (m *MockFlightClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]Upload)
}
