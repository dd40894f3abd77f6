package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type KernelKind string

const (
	KernelBlocked KernelKind = "blocked"
	KernelBLAS    KernelKind = "blas"
)

// DefaultSizes is the representative subset that straddles multiples of 32.
// The last entry is the largest and sizes the shared buffer.
var DefaultSizes = []int{
	31, 32, 96, 97, 127, 128, 129, 191, 192, 229, 255, 256, 257,
	319, 320, 321, 417, 479, 480, 511, 512, 639, 640, 767, 768, 769,
}

// FullSizes returns every multiple of 32 up to 1024, each with its
// neighbours at -1 and +1.
func FullSizes() []int {
	sizes := make([]int, 0, 96)
	for m := 32; m <= 1024; m += 32 {
		sizes = append(sizes, m-1, m, m+1)
	}
	return sizes
}

type Config struct {
	Sizes     []int
	Threshold time.Duration

	Kernel    KernelKind
	BlockSize int
	Seed      uint64

	// MaxIterations caps the doubling loop. Zero means no cap.
	MaxIterations int
	// MaxBufferBytes bounds the shared allocation. Zero means no bound.
	MaxBufferBytes int64

	LogLevel  string
	LogFormat string

	MetricsAddr string
	ArrowOut    string
	FlightAddr  string

	Summary bool
}

func (c *Config) Validate() error {
	if len(c.Sizes) == 0 {
		return fmt.Errorf("invalid sizes: list is empty")
	}
	max := 0
	for i, n := range c.Sizes {
		if n <= 0 {
			return fmt.Errorf("invalid size at position %d: %d (must be positive)", i, n)
		}
		if n > max {
			max = n
		}
	}
	if last := c.Sizes[len(c.Sizes)-1]; last != max {
		return fmt.Errorf("invalid sizes: last entry %d must be the largest (%d)", last, max)
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("invalid threshold: %v (must be positive)", c.Threshold)
	}
	switch c.Kernel {
	case KernelBlocked, KernelBLAS:
	default:
		return fmt.Errorf("invalid kernel: %q (want %q or %q)", c.Kernel, KernelBlocked, KernelBLAS)
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("invalid block_size: %d (must be positive)", c.BlockSize)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("invalid max_iterations: %d (must be non-negative)", c.MaxIterations)
	}
	if c.MaxBufferBytes < 0 {
		return fmt.Errorf("invalid max_buffer_bytes: %d (must be non-negative)", c.MaxBufferBytes)
	}
	return nil
}

// MaxSize is the last size in the list, which Validate guarantees is the largest.
func (c *Config) MaxSize() int {
	if len(c.Sizes) == 0 {
		return 0
	}
	return c.Sizes[len(c.Sizes)-1]
}

func Default() Config {
	sizes := make([]int, len(DefaultSizes))
	copy(sizes, DefaultSizes)
	return Config{
		Sizes:     sizes,
		Threshold: 100 * time.Millisecond,
		Kernel:    KernelBlocked,
		BlockSize: 41,
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// ParseSizes accepts "default", "full", or a list of integers separated by
// commas and/or whitespace.
func ParseSizes(s string) ([]int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		sizes := make([]int, len(DefaultSizes))
		copy(sizes, DefaultSizes)
		return sizes, nil
	case "full":
		return FullSizes(), nil
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	sizes := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", f, err)
		}
		sizes = append(sizes, n)
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("invalid sizes %q: no values", s)
	}
	return sizes, nil
}

// maxThresholdSeconds keeps seconds*1e9 inside the int64 range of time.Duration.
const maxThresholdSeconds = float64(math.MaxInt64/int64(time.Second)) - 1

// ParseThreshold accepts a Go duration ("100ms") or a bare number of seconds ("0.1").
func ParseThreshold(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: want a duration or seconds", s)
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) || math.Abs(secs) > maxThresholdSeconds {
		return 0, fmt.Errorf("invalid threshold %q: out of range", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
