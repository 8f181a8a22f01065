package service

import (
	"sync"

	"github.com/google/uuid"
)

// keyedMutex serializes critical sections per till id. Only one session is
// ever open, but keying by id keeps a close racing a posting on the old
// session from contending with postings on a newly opened one.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (k *keyedMutex) Lock(id uuid.UUID) {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()
	m.Lock()
}

func (k *keyedMutex) Unlock(id uuid.UUID) {
	k.mu.Lock()
	m := k.locks[id]
	k.mu.Unlock()
	if m != nil {
		m.Unlock()
	}
}
