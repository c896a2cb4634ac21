// Package locker hands out one mutual-exclusion primitive per account
// identifier. Holding the lock for an identifier makes the caller the single
// logical owner of that account's balance.
package locker

import "sync"

type Registry struct {
	locks sync.Map // account id -> *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{}
}

// For returns the shared lock for an account, creating it on first use.
// A first-creation race between concurrent callers resolves to exactly one
// winner; every caller gets the same mutex. Locks are not re-entrant.
func (r *Registry) For(accountID string) *sync.Mutex {
	if l, ok := r.locks.Load(accountID); ok {
		return l.(*sync.Mutex)
	}
	l, _ := r.locks.LoadOrStore(accountID, &sync.Mutex{})
	return l.(*sync.Mutex)
}
