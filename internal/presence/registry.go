// Package presence tracks which users hold at least one live connection.
package presence

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// ChangeFunc receives the full online snapshot after a user goes online or offline.
type ChangeFunc func(online []string)

// Registry maps user ids to their live connection ids. Writers are serialized
// by mu; readers load an immutable snapshot and never block writers.
type Registry struct {
	mu       sync.Mutex
	conns    map[string]map[string]struct{}
	snapshot atomic.Pointer[[]string]
	onChange ChangeFunc
	log      *slog.Logger
}

func New(log *slog.Logger) *Registry {
	r := &Registry{
		conns: make(map[string]map[string]struct{}),
		log:   log.With("component", "presence"),
	}
	empty := []string{}
	r.snapshot.Store(&empty)
	return r
}

// OnChange installs the transition callback. It runs with the write lock held,
// so callbacks observe transitions in order and must not call Add or Remove.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Add registers connID for userID and reports whether the user just came online.
func (r *Registry) Add(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[string]struct{})
		r.conns[userID] = set
	}
	set[connID] = struct{}{}
	if ok {
		return false
	}

	r.publish()
	r.log.Debug("user online", "user_id", userID)
	return true
}

// Remove drops connID and reports whether the user just went offline.
// Removing an unknown connection is a no-op.
func (r *Registry) Remove(userID, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[connID]; !ok {
		return false
	}
	delete(set, connID)
	if len(set) > 0 {
		return false
	}
	delete(r.conns, userID)

	r.publish()
	r.log.Debug("user offline", "user_id", userID)
	return true
}

// Snapshot returns the online user ids in ascending order. The slice is a copy.
func (r *Registry) Snapshot() []string {
	s := *r.snapshot.Load()
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func (r *Registry) IsOnline(userID string) bool {
	s := *r.snapshot.Load()
	i := sort.SearchStrings(s, userID)
	return i < len(s) && s[i] == userID
}

// Connections returns how many live connections userID holds.
func (r *Registry) Connections(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID])
}

// publish must be called with mu held.
func (r *Registry) publish() {
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	r.snapshot.Store(&ids)

	if r.onChange != nil {
		out := make([]string, len(ids))
		copy(out, ids)
		r.onChange(out)
	}
}
