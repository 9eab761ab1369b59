package backing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireHeapZeroed(t *testing.T) {
	buf, err := Acquire(Heap, 64)
	require.NoError(t, err)
	defer buf.Close() //nolint:errcheck

	require.Len(t, buf.Bytes(), 64)
	for _, b := range buf.Bytes() {
		require.Zero(t, b)
	}
}

func TestAcquireMmapZeroed(t *testing.T) {
	buf, err := Acquire(Mmap, 4096)
	require.NoError(t, err)
	defer buf.Close() //nolint:errcheck

	require.Len(t, buf.Bytes(), 4096)
	for _, b := range buf.Bytes() {
		require.Zero(t, b)
	}
}

func TestAcquireRejectsNonPositiveSize(t *testing.T) {
	_, err := Acquire(Heap, 0)
	require.ErrorIs(t, err, ErrInvalidSize)

	_, err = Acquire(Heap, -1)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestCloseIsIdempotent(t *testing.T) {
	buf, err := Acquire(Heap, 8)
	require.NoError(t, err)

	require.NoError(t, buf.Close())
	require.NoError(t, buf.Close())
}

func TestMmapCloseIsIdempotent(t *testing.T) {
	buf, err := Acquire(Mmap, 4096)
	require.NoError(t, err)

	require.NoError(t, buf.Close())
	require.NoError(t, buf.Close())
}
