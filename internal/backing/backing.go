// Package backing acquires the raw byte region a pool tiles into
// segments. It is deliberately thin: the spec treats buffer acquisition
// as an out-of-scope collaborator that the core only ever "describes",
// never mutates the identity of.
package backing

import (
	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// ErrInvalidSize is returned when a non-positive size is requested.
var ErrInvalidSize = errors.New("backing: size must be > 0")

// Kind selects how a Buffer's bytes are obtained from the host.
type Kind int

const (
	// Heap acquires the region from the Go heap via make([]byte, n).
	Heap Kind = iota
	// Mmap acquires the region as an anonymous memory-mapped mapping,
	// outside the Go heap, via github.com/edsrzf/mmap-go.
	Mmap
)

// Buffer is a fixed-size, never-resized byte region. Pools describe it
// with segments; they never hand out the whole thing, and never move
// its bytes (spec section 2, "Backing buffer").
type Buffer interface {
	// Bytes returns the region. Its length never changes after Acquire.
	Bytes() []byte
	// Close releases the region back to the host. Calls after the
	// first are no-ops that return nil.
	Close() error
}

// Acquire obtains a zeroed buffer of the given size using the
// requested strategy.
func Acquire(kind Kind, size int) (Buffer, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	switch kind {
	case Mmap:
		return acquireMmap(size)
	case Heap:
		return acquireHeap(size), nil
	default:
		return acquireHeap(size), nil
	}
}

type heapBuffer struct {
	data []byte
}

func acquireHeap(size int) *heapBuffer {
	return &heapBuffer{data: make([]byte, size)}
}

func (b *heapBuffer) Bytes() []byte { return b.data }
func (b *heapBuffer) Close() error  { b.data = nil; return nil }

type mmapBuffer struct {
	region mmap.MMap
}

func acquireMmap(size int) (*mmapBuffer, error) {
	region, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, errors.Wrap(err, "backing: mmap anonymous region")
	}

	return &mmapBuffer{region: region}, nil
}

func (b *mmapBuffer) Bytes() []byte { return b.region }

func (b *mmapBuffer) Close() error {
	if b.region == nil {
		return nil
	}

	err := b.region.Unmap()
	b.region = nil

	return errors.Wrap(err, "backing: munmap")
}
