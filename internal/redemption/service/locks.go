package service

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// keyedMutex serializes first-redemption work per card within this process.
// Entries are reference counted so the map does not grow with card volume.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[snowflake.ID]*lockRef
}

type lockRef struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[snowflake.ID]*lockRef)}
}

// Lock blocks until the per-card lock is held and returns the unlock func.
func (k *keyedMutex) Lock(id snowflake.ID) func() {
	k.mu.Lock()
	ref, ok := k.locks[id]
	if !ok {
		ref = &lockRef{}
		k.locks[id] = ref
	}
	ref.refs++
	k.mu.Unlock()

	ref.mu.Lock()
	return func() {
		ref.mu.Unlock()
		k.mu.Lock()
		ref.refs--
		if ref.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
