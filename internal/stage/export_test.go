package stage

import "testing"

// SetBetweenDiffsHook installs fn to run between the computation of the staged
// diff and the swap of the diff pair.
func SetBetweenDiffsHook(b *Builder, fn func()) {
	b.betweenDiffs = fn
}

// SetMaxUntracked lowers the number of initially untracked paths a builder
// remembers for the duration of the test.
func SetMaxUntracked(t testing.TB, n int) {
	old := maxInitiallyUntracked
	maxInitiallyUntracked = n
	t.Cleanup(func() { maxInitiallyUntracked = old })
}
