package gradient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimizeReachesZero(t *testing.T) {
	// |x - 1000| over a 16-bit dimension.
	f := func(pt []uint64) (uint64, error) {
		x := pt[0]
		if x > 1000 {
			return x - 1000, nil
		}
		return 1000 - x, nil
	}
	pt := []uint64{0}
	res, best, err := Minimize(pt, []uint32{16}, f)
	require.NoError(t, err)
	assert.Equal(t, FoundZero, res)
	assert.Zero(t, best)
	assert.Equal(t, uint64(1000), pt[0])
}

func TestMinimizeTwoDimensions(t *testing.T) {
	// |x + y - 100|: many zeros, descent must find one.
	f := func(pt []uint64) (uint64, error) {
		s := (pt[0] + pt[1]) & 0xff
		if s > 100 {
			return s - 100, nil
		}
		return 100 - s, nil
	}
	pt := []uint64{0, 0}
	res, _, err := Minimize(pt, []uint32{8, 8}, f)
	require.NoError(t, err)
	assert.Equal(t, FoundZero, res)
	assert.Equal(t, uint64(100), (pt[0]+pt[1])&0xff)
}

func TestMinimizeLocalMinimum(t *testing.T) {
	// A two-sided pit that never reaches zero.
	f := func(pt []uint64) (uint64, error) {
		x := int64(pt[0] & 0xff)
		d := x - 7
		if d < 0 {
			d = -d
		}
		return uint64(d) + 3, nil
	}
	pt := []uint64{0}
	res, best, err := Minimize(pt, []uint32{8}, f)
	require.NoError(t, err)
	assert.Equal(t, LocalMinimum, res)
	assert.Equal(t, uint64(3), best)
	assert.Equal(t, uint64(7), pt[0])
}

func TestMinimizeAlreadyZero(t *testing.T) {
	f := func(pt []uint64) (uint64, error) { return 0, nil }
	pt := []uint64{42}
	res, _, err := Minimize(pt, []uint32{8}, f)
	require.NoError(t, err)
	assert.Equal(t, FoundZero, res)
	assert.Equal(t, uint64(42), pt[0], "no mutation when the start already satisfies")
}

func TestMinimizePropagatesTimeout(t *testing.T) {
	calls := 0
	f := func(pt []uint64) (uint64, error) {
		calls++
		if calls > 3 {
			return 0, ErrTimeout
		}
		return 100 - pt[0], nil
	}
	pt := []uint64{0}
	_, _, err := Minimize(pt, []uint32{8}, f)
	assert.ErrorIs(t, err, ErrTimeout)
}
