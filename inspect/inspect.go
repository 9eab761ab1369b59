// Package inspect renders a pool's segment list for humans and for
// machines. It is the spec's "inspection/diagnostic dump", kept
// deliberately outside package pool: the core never needs to know how
// its segments get printed.
package inspect

import (
	"encoding/json"

	"github.com/sanity-io/litter"

	"github.com/segmentlab/mempool/pool"
)

// Segment is the JSON-facing view of one segment: offset, size, and
// whether it is allocated, in address order.
type Segment struct {
	Offset    uint64 `json:"offset"`
	Size      uint64 `json:"size"`
	Allocated bool   `json:"allocated"`
}

func fromViews(views []pool.SegmentView) []Segment {
	out := make([]Segment, len(views))
	for i, v := range views {
		out[i] = Segment{Offset: v.Offset, Size: v.Size, Allocated: v.Allocated}
	}

	return out
}

// Dump returns p's segments in address order, spec section 6's
// "inspect" operation. A pool with no segments (used_nodes == 0, the
// state a pool is left in by Close) returns an empty, non-nil slice.
func Dump(p *pool.Pool) []Segment {
	views := p.Segments()
	out := fromViews(views)

	if out == nil {
		out = []Segment{}
	}

	return out
}

// JSON renders Dump's output as indented JSON.
func JSON(p *pool.Pool) ([]byte, error) {
	return json.MarshalIndent(Dump(p), "", "  ")
}

// Pretty renders Dump's output as a human-readable debug dump via
// sanity-io/litter, matching the teacher's own preference for litter
// over fmt.Printf("%+v", ...) when debugging internal structures.
func Pretty(p *pool.Pool) string {
	return litter.Sdump(Dump(p))
}
