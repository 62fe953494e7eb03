// Package access holds the administrator set consulted by every privileged operation.
package access

import (
	"log/slog"
	"sort"
	"sync"
)

// Admins is a concurrency-safe set of Telegram user IDs that can be replaced at runtime.
type Admins struct {
	mu  sync.RWMutex
	ids map[int64]struct{}
	log *slog.Logger
}

// NewAdmins builds the set from ids; zero IDs are ignored.
func NewAdmins(ids []int64, log *slog.Logger) *Admins {
	if log == nil {
		log = slog.Default()
	}
	a := &Admins{log: log}
	a.ids = toSet(ids)
	return a
}

// IsAdmin reports whether userID is currently an administrator.
func (a *Admins) IsAdmin(userID int64) bool {
	if a == nil {
		return false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, ok := a.ids[userID]
	return ok
}

// IDs returns the administrators in ascending order.
func (a *Admins) IDs() []int64 {
	if a == nil {
		return nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := make([]int64, 0, len(a.ids))
	for id := range a.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Replace swaps the whole set, e.g. after a config reload.
func (a *Admins) Replace(ids []int64) {
	next := toSet(ids)

	a.mu.Lock()
	prev := len(a.ids)
	a.ids = next
	a.mu.Unlock()

	a.log.Info("admin set replaced", slog.Int("previous", prev), slog.Int("current", len(next)))
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}
