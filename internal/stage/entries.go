package stage

import (
	"sort"
	"sync"

	"github.com/aviator-co/gitstage/internal/git"
)

type ChangeKind int

const (
	EntryAdded ChangeKind = iota
	EntryUpdated
	EntryRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case EntryAdded:
		return "added"
	case EntryUpdated:
		return "updated"
	case EntryRemoved:
		return "removed"
	}
	return "unknown"
}

type EntryChange struct {
	Kind  ChangeKind
	Entry git.StatusEntry
}

// EntryList is an ordered (by path) collection of status entries whose changes
// can be observed. Only the builder mutates it.
type EntryList struct {
	name string

	mu      sync.Mutex
	entries []git.StatusEntry
	subs    map[int]func(EntryChange)
	nextSub int
}

func newEntryList(name string) *EntryList {
	return &EntryList{name: name, subs: make(map[int]func(EntryChange))}
}

func (l *EntryList) Name() string {
	return l.name
}

func (l *EntryList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of the entries.
func (l *EntryList) Entries() []git.StatusEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]git.StatusEntry(nil), l.entries...)
}

// Paths returns the paths of the entries, in order.
func (l *EntryList) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	paths := make([]string, len(l.entries))
	for i, e := range l.entries {
		paths[i] = e.Path
	}
	return paths
}

func (l *EntryList) Get(path string) (git.StatusEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i, ok := l.find(path); ok {
		return l.entries[i], true
	}
	return git.StatusEntry{}, false
}

func (l *EntryList) Contains(path string) bool {
	_, ok := l.Get(path)
	return ok
}

// Subscribe registers fn to be called after every change. Callbacks run
// synchronously on the goroutine that made the change, outside of the list's
// lock. The returned function removes the subscription.
func (l *EntryList) Subscribe(fn func(EntryChange)) (unsubscribe func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

func (l *EntryList) find(path string) (int, bool) {
	i := sort.Search(len(l.entries), func(i int) bool { return l.entries[i].Path >= path })
	return i, i < len(l.entries) && l.entries[i].Path == path
}

func (l *EntryList) upsert(e git.StatusEntry) {
	l.mu.Lock()
	change := EntryChange{Kind: EntryAdded, Entry: e}
	if i, ok := l.find(e.Path); ok {
		l.entries[i] = e
		change.Kind = EntryUpdated
	} else {
		l.entries = append(l.entries, git.StatusEntry{})
		copy(l.entries[i+1:], l.entries[i:])
		l.entries[i] = e
	}
	l.mu.Unlock()
	l.notify(change)
}

func (l *EntryList) remove(path string) bool {
	l.mu.Lock()
	i, ok := l.find(path)
	if !ok {
		l.mu.Unlock()
		return false
	}
	e := l.entries[i]
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.mu.Unlock()
	l.notify(EntryChange{Kind: EntryRemoved, Entry: e})
	return true
}

// replace sets the list to entries (which must be sorted by path), notifying
// subscribers of every entry that was added, removed or changed.
func (l *EntryList) replace(entries []git.StatusEntry) {
	l.mu.Lock()
	old := make(map[string]git.StatusEntry, len(l.entries))
	for _, e := range l.entries {
		old[e.Path] = e
	}
	var changes []EntryChange
	for _, e := range entries {
		prev, ok := old[e.Path]
		switch {
		case !ok:
			changes = append(changes, EntryChange{EntryAdded, e})
		case prev.Flags != e.Flags || prev.OldPath != e.OldPath:
			changes = append(changes, EntryChange{EntryUpdated, e})
		}
		delete(old, e.Path)
	}
	for _, e := range old {
		changes = append(changes, EntryChange{EntryRemoved, e})
	}
	l.entries = append([]git.StatusEntry(nil), entries...)
	l.mu.Unlock()

	sort.SliceStable(changes, func(i, j int) bool { return changes[i].Entry.Path < changes[j].Entry.Path })
	for _, c := range changes {
		l.notify(c)
	}
}

func (l *EntryList) notify(c EntryChange) {
	l.mu.Lock()
	subs := make([]func(EntryChange), 0, len(l.subs))
	for id := 0; id < l.nextSub; id++ {
		if fn, ok := l.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	l.mu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}
