package arrow_client

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-dgemm/internal/bench"
)

// WriteFile stores results as an Arrow IPC file at path.
func WriteFile(path string, md map[string]string, results []bench.Result) error {
	mem := memory.NewGoAllocator()
	schema := ResultsSchema(md)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w, err := ipc.NewFileWriter(f, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("failed to open arrow writer: %w", err)
	}

	rec := BuildRecord(mem, schema, results)
	defer rec.Release()

	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return f.Sync()
}

// ReadFile loads results and schema metadata written by WriteFile.
func ReadFile(path string) ([]bench.Result, map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open arrow reader: %w", err)
	}
	defer r.Close()

	md := make(map[string]string)
	meta := r.Schema().Metadata()
	for i, k := range meta.Keys() {
		md[k] = meta.Values()[i]
	}

	var out []bench.Result
	for i := 0; i < r.NumRecords(); i++ {
		rec, err := r.Record(i)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read record %d: %w", i, err)
		}
		rows, err := DecodeRecord(rec)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, rows...)
	}
	return out, md, nil
}
