package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// assertInvariants checks P1-P6 / I1-I7 against a pool's internal
// state. It lives in package pool (not pool_test) because several of
// these properties are only observable through unexported fields.
func assertInvariants(t *testing.T, p *Pool) {
	t.Helper()

	var (
		sumSizes     uint64
		sumAlloc     uint64
		countAllocs  int
		countGaps    int
		prevWasFree  = false
		sawAnyFree   = false
		visited      = map[nodeRef]bool{}
		prevOffset   uint64
		haveOffset   bool
	)

	for ref := p.head; ref != noRef; ref = p.arena.nodes[ref].next {
		require.False(t, visited[ref], "segment list must not cycle")
		visited[ref] = true

		seg := p.arena.nodes[ref]
		require.True(t, seg.inUse, "every listed segment must be in-use")

		if haveOffset {
			require.Equal(t, prevOffset, seg.offset, "segment list must tile the buffer contiguously")
		}

		prevOffset = seg.offset + seg.size
		haveOffset = true

		sumSizes += seg.size

		if seg.allocated {
			sumAlloc += seg.size
			countAllocs++
			// P2: no two adjacent segments are both free.
			prevWasFree = false
		} else {
			countGaps++
			require.False(t, prevWasFree, "no two adjacent segments may both be free") // P2
			prevWasFree = true
			sawAnyFree = true
		}
	}
	_ = sawAnyFree

	require.EqualValues(t, p.totalSize, sumSizes, "P1: segment sizes must sum to total_size") // P1
	require.EqualValues(t, sumAlloc, p.allocSize, "P5: alloc_size must equal sum of allocated segment sizes")
	require.Equal(t, countAllocs, p.numAllocs, "num_allocs must equal count of allocated segments")
	require.Equal(t, countGaps, p.gaps.numGaps, "P3: num_gaps must equal free-segment count in the list")

	// P3 (continued) + P4 + I5: gap index internal consistency.
	require.Equal(t, countGaps, int(activeGapCount(p)), "P3: num_gaps must equal active gap-index entries")

	for i := 1; i < p.gaps.numGaps; i++ {
		a := p.arena.nodes[p.gaps.entries[i-1]]
		b := p.arena.nodes[p.gaps.entries[i]]

		less := a.size < b.size || (a.size == b.size && a.offset < b.offset)
		require.True(t, less, "P4: gap index must be sorted by (size asc, offset asc)") // P4
	}

	for i := 0; i < p.gaps.numGaps; i++ {
		ref := p.gaps.entries[i]
		seg := p.arena.nodes[ref]
		require.True(t, seg.inUse, "I5: gap entry must reference an in-use segment")
		require.False(t, seg.allocated, "I5: gap entry must reference a free segment")
	}

	require.GreaterOrEqual(t, len(p.arena.nodes), p.arena.usedNodes, "I7: arena capacity must be >= used nodes")
}

func activeGapCount(p *Pool) int {
	n := 0
	for i := 0; i < p.gaps.numGaps; i++ {
		if p.gaps.entries[i] != noRef {
			n++
		}
	}
	return n
}
