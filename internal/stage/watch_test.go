package stage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aviator-co/gitstage/internal/git/gittest"
	"github.com/stretchr/testify/require"
)

func TestWatchRefreshesOnChange(t *testing.T) {
	repo := gittest.NewTempRepo(t)
	b := newBuilder(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Watch(ctx, 20*time.Millisecond, nil)
	}()

	fp := file(repo, "new.txt")
	require.Eventually(t, func() bool {
		// Keep touching the file: the watcher may not be set up yet.
		_ = os.WriteFile(fp, []byte("new\n"), 0644)
		return b.Untracked().Contains("new.txt")
	}, 10*time.Second, 100*time.Millisecond)

	gittest.AddFile(t, repo, fp)
	require.Eventually(t, func() bool {
		return b.Staged().Contains("new.txt")
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
