// Package pool implements the free-space bookkeeping engine for a
// single memory pool: the doubly-linked segment list that tiles a
// backing buffer, the size-ordered gap index that drives placement,
// the first-fit/best-fit policies, and the splitting-and-coalescing
// invariants that keep all of it consistent across Allocate and
// Release. Everything outside this package (a pool registry, an
// inspection dump, buffer acquisition, a CLI) is a thin collaborator
// built on top of it.
package pool

import (
	"github.com/pkg/errors"

	"github.com/segmentlab/mempool/internal/backing"
)

// Options configures a Pool at Open time. The zero value behaves like
// DefaultOptions(): Open replaces non-positive initial capacities with
// the defaults, and the zero Policy and BackingKind are FirstFit and
// backing.Heap.
type Options struct {
	Policy              Policy
	InitialNodeCapacity int
	InitialGapCapacity  int
	MaxNodeCapacity     int // 0 = unbounded
	MaxGapCapacity      int // 0 = unbounded
	BackingKind         backing.Kind
}

// DefaultOptions returns the tuning spec section 4.6 prescribes:
// initial capacity 40 for both growable arrays, unbounded growth,
// heap-backed buffer, FirstFit policy.
func DefaultOptions() Options {
	return Options{
		Policy:              FirstFit,
		InitialNodeCapacity: defaultNodeCapacity,
		InitialGapCapacity:  defaultGapCapacity,
		BackingKind:         backing.Heap,
	}
}

// Pool binds a backing buffer to a segment-list node arena and a gap
// index, plus the counters and policy spec section 3 assigns to the
// "Pool manager". All methods assume single-threaded use; see spec
// section 5.
type Pool struct {
	buffer backing.Buffer

	arena nodeArena
	gaps  gapIndex

	head nodeRef // first segment in address order

	totalSize uint64
	allocSize uint64
	numAllocs int

	policy Policy
	closed bool
}

// Handle is an opaque, dereferenceable reference to one allocated
// segment. It is invalidated by Release and by Close, and remains
// valid across other Allocate/Release calls on the same pool (spec
// section 6, "Allocation-handle semantics"). The pair (ref,
// generation) implements option (ii) of spec section 9's handle
// externalisation note: a stale handle is detected because the
// arena slot's generation counter has moved on.
type Handle struct {
	pool       *Pool
	ref        nodeRef
	generation uint64
}

// Open creates a pool over a freshly acquired backing buffer of size
// bytes, installs one free segment spanning the whole buffer, and
// returns it ready for Allocate/Release (spec section 4.6).
func Open(size uint64, opts Options) (*Pool, error) {
	if size == 0 {
		return nil, ErrInvalidSize
	}

	if opts.Policy != FirstFit && opts.Policy != BestFit {
		return nil, ErrInvalidPolicy
	}

	if opts.InitialNodeCapacity <= 0 {
		opts.InitialNodeCapacity = defaultNodeCapacity
	}

	if opts.InitialGapCapacity <= 0 {
		opts.InitialGapCapacity = defaultGapCapacity
	}

	buf, err := backing.Acquire(opts.BackingKind, int(size))
	if err != nil {
		return nil, errOutOfMemory(err)
	}

	p := &Pool{
		buffer:    buf,
		arena:     newNodeArena(opts.InitialNodeCapacity, opts.MaxNodeCapacity),
		gaps:      newGapIndex(opts.InitialGapCapacity, opts.MaxGapCapacity),
		totalSize: size,
		policy:    opts.Policy,
	}

	ref, err := p.arena.acquire()
	if err != nil {
		buf.Close() //nolint:errcheck
		return nil, errOutOfMemory(err)
	}

	p.arena.nodes[ref] = node{
		offset:     0,
		size:       size,
		allocated:  false,
		inUse:      true,
		prev:       noRef,
		next:       noRef,
		generation: p.arena.nodes[ref].generation,
	}
	p.head = ref

	if err := p.gaps.insert(p.arena.nodes, ref); err != nil {
		buf.Close() //nolint:errcheck
		return nil, errOutOfMemory(err)
	}

	return p, nil
}

// Close releases the pool's buffer, node arena, and gap index, after
// asserting there are no live allocations (spec section 4.6, 6).
func (p *Pool) Close() error {
	if p.closed {
		return nil
	}

	if p.numAllocs > 0 {
		return ErrNotEmpty
	}

	if err := p.buffer.Close(); err != nil {
		return err
	}

	p.arena = nodeArena{}
	p.gaps = gapIndex{}
	p.head = noRef
	p.closed = true

	return nil
}

// Allocate reserves n bytes from the pool's free space using its
// configured placement policy, splitting the chosen gap if it is
// larger than n (spec section 4.4).
func (p *Pool) Allocate(n uint64) (Handle, error) {
	if p.closed {
		return Handle{}, ErrPoolClosed
	}

	if n == 0 {
		return Handle{}, ErrInvalidSize
	}

	ref, err := p.place(n)
	if err != nil {
		return Handle{}, err
	}

	if err := p.split(ref, n); err != nil {
		return Handle{}, err
	}

	p.numAllocs++
	p.allocSize += n

	return Handle{pool: p, ref: ref, generation: p.arena.nodes[ref].generation}, nil
}

// Release returns the segment named by h to the pool's free space,
// coalescing it with any free neighbours (spec section 4.5).
func (p *Pool) Release(h Handle) error {
	ref, err := p.resolve(h)
	if err != nil {
		return err
	}

	// Reserve gap-index capacity for the entry this call will insert
	// before mutating anything else. coalesce below only ever removes
	// gap-index entries (merging neighbours), so sizing for "one more
	// than the current count" is a safe upper bound on what the insert
	// at the end of this function will need, which makes that insert
	// infallible and everything below it safe to do unconditionally.
	if err := p.gaps.growIfNeeded(); err != nil {
		return err
	}

	seg := &p.arena.nodes[ref]
	p.numAllocs--
	p.allocSize -= seg.size
	seg.allocated = false
	// invalidate h even if this slot survives coalescing and is later
	// handed out again by Allocate.
	seg.generation++

	result := p.coalesce(ref)

	return p.gaps.insert(p.arena.nodes, result)
}

// Size returns the number of bytes the handle's segment was allocated
// with. It is valid until the handle is released.
func (p *Pool) Size(h Handle) (uint64, error) {
	ref, err := p.resolve(h)
	if err != nil {
		return 0, err
	}

	return p.arena.nodes[ref].size, nil
}

// resolve validates h against p and returns the live node it names.
func (p *Pool) resolve(h Handle) (nodeRef, error) {
	if h.pool != p || h.ref == noRef || p.closed {
		return noRef, ErrBadHandle
	}

	if int(h.ref) < 0 || int(h.ref) >= len(p.arena.nodes) {
		return noRef, ErrBadHandle
	}

	seg := &p.arena.nodes[h.ref]
	if !seg.inUse || !seg.allocated || seg.generation != h.generation {
		return noRef, ErrBadHandle
	}

	return h.ref, nil
}

// Stats is a point-in-time snapshot of a pool's counters.
type Stats struct {
	TotalSize uint64
	AllocSize uint64
	NumAllocs int
	NumGaps   int
	Policy    Policy
}

// Stats returns the pool's current counters (spec section 3's
// total_size, alloc_size, num_allocs, num_gaps).
func (p *Pool) Stats() Stats {
	return Stats{
		TotalSize: p.totalSize,
		AllocSize: p.allocSize,
		NumAllocs: p.numAllocs,
		NumGaps:   p.gaps.numGaps,
		Policy:    p.policy,
	}
}

// SegmentView is a read-only snapshot of one segment, in address
// order, as handed to inspection tooling outside this package.
type SegmentView struct {
	Offset    uint64
	Size      uint64
	Allocated bool
}

// Segments returns every segment in address order (spec section 6,
// "inspect"). The out-of-scope inspection package builds its dump on
// top of this.
func (p *Pool) Segments() []SegmentView {
	var out []SegmentView

	for ref := p.head; ref != noRef; ref = p.arena.nodes[ref].next {
		seg := &p.arena.nodes[ref]
		out = append(out, SegmentView{Offset: seg.offset, Size: seg.size, Allocated: seg.allocated})
	}

	return out
}

func errOutOfMemory(cause error) error {
	if cause == nil {
		return ErrOutOfMemory
	}

	return errors.Wrap(ErrOutOfMemory, cause.Error())
}
