package arrow_client

import (
	"fmt"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/longbow-dgemm/internal/bench"
	"github.com/23skdu/longbow-dgemm/internal/timing"
)

var resultFields = []arrow.Field{
	{Name: "size", Type: arrow.PrimitiveTypes.Int32},
	{Name: "iterations", Type: arrow.PrimitiveTypes.Int64},
	{Name: "attempts", Type: arrow.PrimitiveTypes.Int32},
	{Name: "optimized_kernel", Type: arrow.BinaryTypes.String},
	{Name: "naive_kernel", Type: arrow.BinaryTypes.String},
	{Name: "optimized_seconds", Type: arrow.PrimitiveTypes.Float64},
	{Name: "naive_seconds", Type: arrow.PrimitiveTypes.Float64},
	{Name: "optimized_mflops", Type: arrow.PrimitiveTypes.Float64},
	{Name: "naive_mflops", Type: arrow.PrimitiveTypes.Float64},
	{Name: "ratio", Type: arrow.PrimitiveTypes.Float64},
}

// ResultsSchema describes one row per problem size. md is attached as
// schema metadata (host description, kernel description).
func ResultsSchema(md map[string]string) *arrow.Schema {
	if len(md) == 0 {
		return arrow.NewSchema(resultFields, nil)
	}
	meta := arrow.MetadataFrom(md)
	return arrow.NewSchema(resultFields, &meta)
}

// BuildRecord converts results into a single record batch. The caller must
// Release it.
func BuildRecord(mem memory.Allocator, schema *arrow.Schema, results []bench.Result) arrow.Record {
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	for _, r := range results {
		b.Field(0).(*array.Int32Builder).Append(int32(r.Size))
		b.Field(1).(*array.Int64Builder).Append(int64(r.Iterations))
		b.Field(2).(*array.Int32Builder).Append(int32(r.Attempts))
		b.Field(3).(*array.StringBuilder).Append(r.OptimizedKernel)
		b.Field(4).(*array.StringBuilder).Append(r.NaiveKernel)
		b.Field(5).(*array.Float64Builder).Append(r.OptimizedElapsed.Seconds())
		b.Field(6).(*array.Float64Builder).Append(r.NaiveElapsed.Seconds())
		b.Field(7).(*array.Float64Builder).Append(r.OptimizedMflops)
		b.Field(8).(*array.Float64Builder).Append(r.NaiveMflops)
		b.Field(9).(*array.Float64Builder).Append(r.Ratio)
	}
	return b.NewRecord()
}

// DecodeRecord is the inverse of BuildRecord.
func DecodeRecord(rec arrow.Record) ([]bench.Result, error) {
	// Metadata may differ; fields may not.
	fields := rec.Schema().Fields()
	if len(fields) != len(resultFields) {
		return nil, fmt.Errorf("unexpected schema: %s", rec.Schema())
	}
	for i, f := range fields {
		if f.Name != resultFields[i].Name || !arrow.TypeEqual(f.Type, resultFields[i].Type) {
			return nil, fmt.Errorf("unexpected field %d: %s", i, f)
		}
	}

	size := rec.Column(0).(*array.Int32)
	iterations := rec.Column(1).(*array.Int64)
	attempts := rec.Column(2).(*array.Int32)
	optName := rec.Column(3).(*array.String)
	naiveName := rec.Column(4).(*array.String)
	optSec := rec.Column(5).(*array.Float64)
	naiveSec := rec.Column(6).(*array.Float64)
	optRate := rec.Column(7).(*array.Float64)
	naiveRate := rec.Column(8).(*array.Float64)
	ratio := rec.Column(9).(*array.Float64)

	out := make([]bench.Result, rec.NumRows())
	for i := range out {
		out[i] = bench.Result{
			Sample: timing.Sample{
				Size:             int(size.Value(i)),
				Iterations:       int(iterations.Value(i)),
				Attempts:         int(attempts.Value(i)),
				OptimizedElapsed: seconds(optSec.Value(i)),
				NaiveElapsed:     seconds(naiveSec.Value(i)),
			},
			OptimizedKernel: optName.Value(i),
			NaiveKernel:     naiveName.Value(i),
			OptimizedMflops: optRate.Value(i),
			NaiveMflops:     naiveRate.Value(i),
			Ratio:           ratio.Value(i),
		}
	}
	return out, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
