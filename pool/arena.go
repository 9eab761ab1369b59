package pool

// fillFactor is the occupancy threshold above which a growable array
// doubles (spec section 4.2/4.3).
const fillFactor = 0.75

// growthFactor is how much a growable array's capacity multiplies by
// when it crosses fillFactor.
const growthFactor = 2

// defaultNodeCapacity and defaultGapCapacity are the initial sizes of
// the node arena and gap index, per spec section 4.6 open().
const (
	defaultNodeCapacity = 40
	defaultGapCapacity  = 40
)

// nodeArena backs every segment in a pool with a growable array of
// stable slots; references elsewhere (gap-index entries, prev/next
// links, client handles) are indices into it, so growth never
// invalidates an existing reference (design note in spec section 9,
// option (a)).
type nodeArena struct {
	nodes       []node
	usedNodes   int
	maxCapacity int // 0 means unbounded; models a host allocator that can refuse growth
}

func newNodeArena(capacity, maxCapacity int) nodeArena {
	return nodeArena{nodes: make([]node, capacity), maxCapacity: maxCapacity}
}

// acquire returns the reference to some slot with inUse == false,
// marking it inUse. The arena is bounded by the number of live
// segments (at most 2*num_allocs + 1), so a linear scan is acceptable,
// matching the original C implementation's node-heap scan.
func (a *nodeArena) acquire() (nodeRef, error) {
	if err := a.growIfNeeded(); err != nil {
		return noRef, err
	}

	for i := range a.nodes {
		if !a.nodes[i].inUse {
			gen := a.nodes[i].generation
			a.nodes[i] = node{inUse: true, generation: gen}
			a.usedNodes++
			return nodeRef(i), nil
		}
	}

	// growIfNeeded should have made room; reaching here means the fill
	// factor check let us get away with zero free slots, which would be
	// a bookkeeping bug rather than a caller error.
	return noRef, ErrOutOfMemory
}

// release marks the slot at ref as not in use and clears its fields,
// except for its generation counter, which is bumped so that any
// handle still referring to this slot is detectably stale.
func (a *nodeArena) release(ref nodeRef) {
	gen := a.nodes[ref].generation
	a.nodes[ref] = node{generation: gen + 1}
	a.usedNodes--
}

// growIfNeeded doubles the arena's capacity when one more used slot
// would push usedNodes/capacity above fillFactor. With a maxCapacity
// set, growth stops at that cap, and ErrOutOfMemory is returned once
// the arena is already at it. New slots are zero-valued, i.e. not in use.
func (a *nodeArena) growIfNeeded() error {
	if len(a.nodes) == 0 {
		a.nodes = make([]node, defaultNodeCapacity)
		return nil
	}

	if float64(a.usedNodes+1)/float64(len(a.nodes)) <= fillFactor {
		return nil
	}

	newCap := len(a.nodes) * growthFactor
	if a.maxCapacity > 0 && newCap > a.maxCapacity {
		if len(a.nodes) >= a.maxCapacity {
			return ErrOutOfMemory
		}
		newCap = a.maxCapacity
	}

	grown := make([]node, newCap)
	copy(grown, a.nodes)
	a.nodes = grown

	return nil
}
