package pending

import (
	"sort"
	"sync"

	"github.com/dwarvesf/swap-history/internal/consts"
)

// Tracker is the set of ids of one source seen before they were final.
type Tracker struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{ids: make(map[string]struct{})}
}

// Track adds ids. Empty ids are ignored.
func (t *Tracker) Track(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			t.ids[id] = struct{}{}
		}
	}
}

// Drain returns every tracked id in sorted order and empties the set in one step.
// Ids tracked after the snapshot stay for the next drain.
func (t *Tracker) Drain() []string {
	t.mu.Lock()
	snapshot := t.ids
	t.ids = make(map[string]struct{})
	t.mu.Unlock()

	out := make([]string, 0, len(snapshot))
	for id := range snapshot {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Restore puts back ids whose retry failed.
func (t *Tracker) Restore(ids []string) {
	t.Track(ids...)
}

func (t *Tracker) Contains(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ids[id]
	return ok
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}

// Registry owns one tracker per source.
type Registry struct {
	mu       sync.Mutex
	trackers map[consts.SourceKind]*Tracker
}

func NewRegistry() *Registry {
	return &Registry{trackers: make(map[consts.SourceKind]*Tracker)}
}

// For returns the tracker of a source, creating it on first use.
func (r *Registry) For(kind consts.SourceKind) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[kind]
	if !ok {
		t = NewTracker()
		r.trackers[kind] = t
	}
	return t
}

// Sizes reports the tracked count per source.
func (r *Registry) Sizes() map[consts.SourceKind]int {
	r.mu.Lock()
	trackers := make(map[consts.SourceKind]*Tracker, len(r.trackers))
	for k, t := range r.trackers {
		trackers[k] = t
	}
	r.mu.Unlock()

	out := make(map[consts.SourceKind]int, len(trackers))
	for k, t := range trackers {
		out[k] = t.Len()
	}
	return out
}
