package inspect

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/segmentlab/mempool/pool"
)

func TestDumpReflectsSegmentOrder(t *testing.T) {
	p, err := pool.Open(100, pool.DefaultOptions())
	require.NoError(t, err)
	defer p.Close() //nolint:errcheck

	h, err := p.Allocate(30)
	require.NoError(t, err)

	segs := Dump(p)
	require.Equal(t, []Segment{
		{Offset: 0, Size: 30, Allocated: true},
		{Offset: 30, Size: 70, Allocated: false},
	}, segs)

	require.NoError(t, p.Release(h))
}

func TestDumpNeverReturnsNil(t *testing.T) {
	p, err := pool.Open(10, pool.DefaultOptions())
	require.NoError(t, err)
	defer p.Close() //nolint:errcheck

	segs := Dump(p)
	require.NotNil(t, segs)
}

func TestJSONRoundTrips(t *testing.T) {
	p, err := pool.Open(50, pool.DefaultOptions())
	require.NoError(t, err)
	defer p.Close() //nolint:errcheck

	h, err := p.Allocate(10)
	require.NoError(t, err)
	defer func() { require.NoError(t, p.Release(h)) }()

	data, err := JSON(p)
	require.NoError(t, err)

	var got []Segment
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, Dump(p), got)
}

func TestPrettyIsNonEmpty(t *testing.T) {
	p, err := pool.Open(10, pool.DefaultOptions())
	require.NoError(t, err)
	defer p.Close() //nolint:errcheck

	require.NotEmpty(t, Pretty(p))
}
