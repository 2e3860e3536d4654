package solver

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
)

// Rng feeds the havoc phase. It wraps a deterministic PRNG that is
// reseeded from the system entropy pool every ReseedInterval draws.
type Rng struct {
	r     *rand.Rand
	draws int
}

func NewRng() *Rng {
	rng := &Rng{}
	rng.reseed()
	return rng
}

func (g *Rng) reseed() {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic("solver: cannot read system entropy: " + err.Error())
	}
	g.r = rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(buf[:]))))
	g.draws = 0
}

func (g *Rng) tick() {
	g.draws++
	if g.draws >= ReseedInterval {
		g.reseed()
	}
}

// Uint64 draws a raw 64-bit value.
func (g *Rng) Uint64() uint64 {
	g.tick()
	return g.r.Uint64()
}

// Intn draws a value in [0, n).
func (g *Rng) Intn(n int) int {
	g.tick()
	return g.r.Intn(n)
}
