package astinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupRoundTripLE(t *testing.T) {
	buf := make([]uint64, 8)
	g := NewGroup(3, 2, 1, 0)
	for _, v := range []uint64{0, 1, 0xdeadbeef, 0xffffffff, 0x01020304} {
		g.SetLE(buf, v)
		assert.Equal(t, v, g.ValueLE(buf), "LE round trip of 0x%x", v)
	}
}

func TestGroupRoundTripBE(t *testing.T) {
	buf := make([]uint64, 8)
	g := NewGroup(3, 2, 1, 0)
	for _, v := range []uint64{0, 0xdeadbeef, 0xcafebabe} {
		g.SetBE(buf, v)
		assert.Equal(t, v, g.ValueBE(buf), "BE round trip of 0x%x", v)
	}
}

func TestGroupEndianViewsAreSwapped(t *testing.T) {
	buf := make([]uint64, 4)
	g := NewGroup(3, 2, 1, 0)
	g.SetLE(buf, 0xdeadbeef)
	assert.Equal(t, uint64(0xef), buf[0])
	assert.Equal(t, uint64(0xbe), buf[1])
	assert.Equal(t, uint64(0xad), buf[2])
	assert.Equal(t, uint64(0xde), buf[3])
	assert.Equal(t, uint64(0xefbeadde), g.ValueBE(buf))
}

func TestGroupSingleByte(t *testing.T) {
	buf := make([]uint64, 2)
	g := NewGroup(1)
	g.SetLE(buf, 0x42)
	assert.Equal(t, uint64(0x42), buf[1])
	assert.Equal(t, uint64(0x42), g.ValueBE(buf))
}

func TestGroupCap(t *testing.T) {
	assert.Panics(t, func() {
		NewGroup(0, 1, 2, 3, 4, 5, 6, 7, 8)
	})
}

func TestCacheDropOnOverflow(t *testing.T) {
	c := NewCache()
	for i := 0; i < MaxCacheEntries; i++ {
		c.Put(uint64(i)+1, NewRecord())
	}
	assert.Equal(t, MaxCacheEntries, c.Len())
	c.Put(uint64(MaxCacheEntries)+1, NewRecord())
	// The overflowing insert drops everything that came before it.
	assert.Equal(t, 1, c.Len())
	_, _, drops := c.Stats()
	assert.Equal(t, uint64(1), drops)
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache()
	r := NewRecord()
	r.AddIndex(3, false)
	c.Put(77, r)
	got, ok := c.Get(77)
	assert.True(t, ok)
	assert.Same(t, r, got)
	c.Invalidate()
	_, ok = c.Get(77)
	assert.False(t, ok)
}
