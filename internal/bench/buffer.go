package bench

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/23skdu/longbow-dgemm/internal/metrics"
)

// ErrAllocation reports that the shared buffer could not be obtained.
var ErrAllocation = errors.New("failed to allocate largest problem size")

const elemSize = 8

// Allocator hands out the backing storage for a Buffer.
type Allocator interface {
	Alloc(elements int) ([]float64, error)
	Free(data []float64)
}

var allocatedBytes int64

func traceAlloc(delta int64) {
	metrics.RecordBufferBytes(atomic.AddInt64(&allocatedBytes, delta))
}

// AllocatedBytes reports bytes currently held through HeapAllocator.
func AllocatedBytes() int64 {
	return atomic.LoadInt64(&allocatedBytes)
}

// HeapAllocator allocates on the Go heap. MaxBytes, when positive, rejects
// larger requests up front.
type HeapAllocator struct {
	MaxBytes int64
}

func (h HeapAllocator) Alloc(elements int) (data []float64, err error) {
	if elements < 0 || int64(elements) > math.MaxInt64/elemSize {
		return nil, fmt.Errorf("%w: %d elements overflows", ErrAllocation, elements)
	}
	bytes := int64(elements) * elemSize
	if h.MaxBytes > 0 && bytes > h.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrAllocation, bytes, h.MaxBytes)
	}

	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: %v", ErrAllocation, r)
		}
	}()
	data = make([]float64, elements)
	traceAlloc(bytes)
	return data, nil
}

func (h HeapAllocator) Free(data []float64) {
	if data == nil {
		return
	}
	traceAlloc(-int64(cap(data)) * elemSize)
}

// Buffer is one contiguous allocation holding A, B and C at the largest
// problem size. Regions start at 0, nmax² and 2·nmax² regardless of the size
// being measured; smaller sizes use a prefix of each region.
type Buffer struct {
	nmax  int
	data  []float64
	a     []float64
	b     []float64
	c     []float64
	alloc Allocator
}

// NewBuffer allocates 3·nmax² elements through alloc.
func NewBuffer(alloc Allocator, nmax int) (*Buffer, error) {
	if nmax <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidSizes, nmax)
	}
	if nmax > int(math.Sqrt(float64(math.MaxInt/3))) {
		return nil, fmt.Errorf("%w: size %d overflows", ErrAllocation, nmax)
	}
	region := nmax * nmax
	data, err := alloc.Alloc(3 * region)
	if err != nil {
		return nil, err
	}
	return &Buffer{
		nmax:  nmax,
		data:  data,
		a:     data[0:region:region],
		b:     data[region : 2*region : 2*region],
		c:     data[2*region : 3*region : 3*region],
		alloc: alloc,
	}, nil
}

func (b *Buffer) MaxSize() int { return b.nmax }

// Len is the total element count, 3·nmax².
func (b *Buffer) Len() int { return len(b.data) }

// Views returns the first n² elements of each region.
func (b *Buffer) Views(n int) (a, bm, c []float64, err error) {
	if b.data == nil {
		return nil, nil, nil, errors.New("buffer already released")
	}
	if n <= 0 || n > b.nmax {
		return nil, nil, nil, fmt.Errorf("%w: size %d outside 1..%d", ErrInvalidSizes, n, b.nmax)
	}
	nn := n * n
	return b.a[:nn], b.b[:nn], b.c[:nn], nil
}

// Release returns the storage to the allocator. Later calls do nothing.
func (b *Buffer) Release() {
	if b == nil || b.data == nil {
		return
	}
	b.alloc.Free(b.data)
	b.data, b.a, b.b, b.c = nil, nil, nil, nil
}
