package state

import (
	"context"
	"sort"
	"sync"
)

type key struct {
	target string
	path   string
}

// MemoryStore keeps states in a map.  Writers serialise per node, so updates to different nodes
// never wait on each other beyond the brief map access.
type MemoryStore struct {
	mapLock sync.RWMutex
	states  map[key]ReplicationState
	locks   map[key]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[key]ReplicationState),
		locks:  make(map[key]*sync.Mutex),
	}
}

func (m *MemoryStore) Get(_ context.Context, target, path string) (ReplicationState, bool, error) {
	m.mapLock.RLock()
	defer m.mapLock.RUnlock()
	st, ok := m.states[key{target, path}]
	return st, ok, nil
}

func (m *MemoryStore) Update(_ context.Context, target, path string, fn UpdateFunc) error {
	k := key{target, path}
	mu := m.lockFor(k)
	mu.Lock()
	defer mu.Unlock()

	m.mapLock.RLock()
	current, exists := m.states[k]
	m.mapLock.RUnlock()

	next, write := fn(current, exists)
	if !write {
		return nil
	}
	next.Target, next.Path = target, path

	m.mapLock.Lock()
	m.states[k] = next
	m.mapLock.Unlock()
	return nil
}

func (m *MemoryStore) List(_ context.Context, target string) ([]ReplicationState, error) {
	m.mapLock.RLock()
	defer m.mapLock.RUnlock()

	result := []ReplicationState{}
	for k, st := range m.states {
		if k.target == target {
			result = append(result, st)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

func (m *MemoryStore) lockFor(k key) *sync.Mutex {
	m.mapLock.RLock()
	mu, exists := m.locks[k]
	m.mapLock.RUnlock()
	if exists {
		return mu
	}

	m.mapLock.Lock()
	defer m.mapLock.Unlock()

	// check again under the write lock
	if mu, exists := m.locks[k]; exists {
		return mu
	}
	mu = &sync.Mutex{}
	m.locks[k] = mu
	return mu
}
