package pool

// nodeRef is a stable reference to a segment: an index into the pool's
// node arena. Indices survive arena growth (see arena.go); they are
// invalidated only when the slot they name is released and later
// reused, which is why every public handle also carries a generation
// counter (see manager.go).
type nodeRef int32

// noRef is the null reference, used for "no previous/next segment" and
// for an empty free list.
const noRef nodeRef = -1

// node is one segment: a maximal contiguous sub-range of the backing
// buffer, either allocated or free (a gap). Segments form a doubly
// linked list in address order via prev/next. inUse distinguishes a
// live list entry from a free slot in the node arena.
type node struct {
	offset     uint64
	size       uint64
	allocated  bool
	inUse      bool
	prev, next nodeRef
	generation uint64
}

// split divides the free segment at ref into an allocated prefix of
// size n and, if any bytes remain, a free remainder immediately after
// it in the list. Precondition: the segment at ref is free and its
// size is >= n. Returns an error only if growing the node arena or gap
// index to hold the remainder fails.
func (p *Pool) split(ref nodeRef, n uint64) error {
	seg := &p.arena.nodes[ref]

	p.gaps.remove(p.arena.nodes, ref)

	original := seg.size
	seg.size = n
	seg.allocated = true

	if original == n {
		return nil
	}

	remRef, err := p.arena.acquire()
	if err != nil {
		// roll back: seg keeps the full original size as a gap again.
		seg.size = original
		seg.allocated = false
		p.gaps.insert(p.arena.nodes, ref) //nolint:errcheck // same slot just vacated, cannot fail
		return err
	}

	// acquire() may have grown the arena and reallocated its backing
	// array; re-fetch seg's pointer before mutating it further.
	seg = &p.arena.nodes[ref]
	origNext := seg.next

	rem := &p.arena.nodes[remRef]
	rem.offset = seg.offset + n
	rem.size = original - n
	rem.allocated = false
	rem.inUse = true
	rem.prev = ref
	rem.next = origNext

	if origNext != noRef {
		p.arena.nodes[origNext].prev = remRef
	}
	seg.next = remRef

	if err := p.gaps.insert(p.arena.nodes, remRef); err != nil {
		// roll back: unsplice remRef, release its arena slot, and
		// restore seg to its pre-split free state.
		seg.next = origNext
		if origNext != noRef {
			p.arena.nodes[origNext].prev = ref
		}
		p.arena.release(remRef)

		seg.size = original
		seg.allocated = false
		p.gaps.insert(p.arena.nodes, ref) //nolint:errcheck // same slot just vacated, cannot fail

		return err
	}

	return nil
}

// coalesce merges the free segment at ref with any free neighbours,
// right neighbour first, then left. It returns the (possibly-shifted)
// surviving reference; the caller is responsible for inserting it into
// the gap index exactly once. Precondition: the segment at ref is free
// and not currently present in the gap index.
func (p *Pool) coalesce(ref nodeRef) nodeRef {
	seg := &p.arena.nodes[ref]

	if seg.next != noRef && !p.arena.nodes[seg.next].allocated {
		nextRef := seg.next
		next := &p.arena.nodes[nextRef]

		p.gaps.remove(p.arena.nodes, nextRef)

		seg.size += next.size
		seg.next = next.next
		if next.next != noRef {
			p.arena.nodes[next.next].prev = ref
		}

		p.arena.release(nextRef)
	}

	if seg.prev != noRef && !p.arena.nodes[seg.prev].allocated {
		prevRef := seg.prev
		prev := &p.arena.nodes[prevRef]

		p.gaps.remove(p.arena.nodes, prevRef)

		prev.size += seg.size
		prev.next = seg.next
		if seg.next != noRef {
			p.arena.nodes[seg.next].prev = prevRef
		}

		p.arena.release(ref)

		return prevRef
	}

	return ref
}
