package stage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is how long Watch waits for the file system to settle
// before refreshing.
const DefaultWatchDebounce = 300 * time.Millisecond

// Watch refreshes the builder whenever the work tree, the index or HEAD
// changes, until ctx is done. Bursts of events are coalesced into a single
// refresh. onRefresh, if not nil, is called after every refresh with its
// result.
func (b *Builder) Watch(ctx context.Context, debounce time.Duration, onRefresh func(error)) error {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapIf(err, "failed to create file watcher")
	}
	defer w.Close()

	if err := b.watchTree(w, b.paths.WorkDir); err != nil {
		return err
	}
	if err := w.Add(b.paths.ControlDir); err != nil {
		return errors.WrapIff(err, "failed to watch %q", b.paths.ControlDir)
	}
	b.log.WithField("debounce", debounce).Debug("watching work tree")

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !b.relevantEvent(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
					if err := b.watchTree(w, ev.Name); err != nil {
						b.log.WithError(err).Warn("failed to watch new directory")
					}
				}
			}
			b.log.WithField("op", ev.Op.String()).WithField("path", ev.Name).Debug("file system event")
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			b.log.WithError(err).Warn("file watcher error")
		case <-fire:
			fire = nil
			err := b.Refresh(ctx)
			if err != nil && ctx.Err() != nil {
				return nil
			}
			if err != nil {
				b.log.WithError(err).Warn("failed to refresh after file system change")
			}
			if onRefresh != nil {
				onRefresh(err)
			}
		}
	}
}

// watchTree adds root and every directory below it, except git control
// directories, to w.
func (b *Builder) watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(pth string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.Add(pth); err != nil {
			return errors.WrapIff(err, "failed to watch %q", pth)
		}
		return nil
	})
}

// relevantEvent filters out events that cannot change any of the file lists,
// such as lock files or control directory files other than the index and HEAD.
func (b *Builder) relevantEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Chmod) {
		return false
	}
	if strings.HasSuffix(ev.Name, ".lock") {
		return false
	}
	if filepath.Dir(ev.Name) == b.paths.ControlDir {
		base := filepath.Base(ev.Name)
		return base == "index" || base == "HEAD"
	}
	return true
}
