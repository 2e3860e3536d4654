// Package testcase loads seed and auxiliary test cases from disk and
// writes proofs back out. Test-case files are raw byte vectors; their
// length fixes the proof length of the owning solver context.
package testcase

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Testcase is one concrete assignment for the input symbols, widened to
// u64 slots so assignment symbols can carry wider values.
type Testcase struct {
	Values []uint64
	Sizes  []uint8
}

// Load reads a raw byte file as a test case of byte-wide values.
func Load(path string) (*Testcase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read testcase: %w", err)
	}
	tc := &Testcase{
		Values: make([]uint64, len(raw)),
		Sizes:  make([]uint8, len(raw)),
	}
	for i, b := range raw {
		tc.Values[i] = uint64(b)
		tc.Sizes[i] = 8
	}
	return tc, nil
}

// LoadFolder reads every regular file in dir as an auxiliary test case,
// in name order so runs are reproducible.
func LoadFolder(dir string) ([]*Testcase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read testcase folder: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]*Testcase, 0, len(names))
	for _, name := range names {
		tc, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, nil
}

// Grow extends the test case with extra value slots, used when
// assignments are registered after loading.
func (tc *Testcase) Grow(n int) {
	for len(tc.Values) < n {
		tc.Values = append(tc.Values, 0)
		tc.Sizes = append(tc.Sizes, 64)
	}
}

// Len returns the number of value slots.
func (tc *Testcase) Len() int { return len(tc.Values) }

// DumpProof writes raw proof bytes to path.
func DumpProof(path string, proof []byte) error {
	if err := os.WriteFile(path, proof, 0o644); err != nil {
		return fmt.Errorf("failed to write proof: %w", err)
	}
	return nil
}
