package catalog

import "sync/atomic"

// Snapshot is one immutable view of all launchable items. The refresher
// builds a complete new Snapshot and publishes it with Library.Publish;
// nothing mutates a Snapshot after publication.
type Snapshot struct {
	Apps        []AppItem
	Directories []DirectoryItem
	Commands    []CommandItem
}

// Library holds the current Snapshot behind an atomic pointer. Readers get
// a consistent view without locking; a publish never tears an in-flight
// read.
type Library struct {
	current atomic.Pointer[Snapshot]
}

func NewLibrary() *Library {
	l := &Library{}
	l.current.Store(&Snapshot{})
	return l
}

// Snapshot returns the current view. Callers must not mutate it.
func (l *Library) Snapshot() *Snapshot {
	return l.current.Load()
}

// Publish swaps in a new view atomically.
func (l *Library) Publish(s *Snapshot) {
	l.current.Store(s)
}
