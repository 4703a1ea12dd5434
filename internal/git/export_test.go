package git

import "testing"

func SetMaxUntrackedFiles(t testing.TB, n int) {
	old := maxUntrackedFiles
	maxUntrackedFiles = n
	t.Cleanup(func() { maxUntrackedFiles = old })
}
