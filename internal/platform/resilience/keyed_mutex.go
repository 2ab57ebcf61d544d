package resilience

import "sync"

// KeyedMutex serializes work per key without a process-wide lock.
// Idle keys are dropped so the map stays bounded by live contention.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free and returns the matching unlock func.
func (m *KeyedMutex) Lock(key string) func() {
	l := m.acquire(key)
	l.mu.Lock()
	return m.unlocker(key, l)
}

// TryLock takes key only when nobody holds it.
func (m *KeyedMutex) TryLock(key string) (func(), bool) {
	l := m.acquire(key)
	if !l.mu.TryLock() {
		m.release(key, l)
		return nil, false
	}
	return m.unlocker(key, l), true
}

// Len reports keys currently held or waited on.
func (m *KeyedMutex) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

func (m *KeyedMutex) acquire(key string) *keyedLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locks == nil {
		m.locks = make(map[string]*keyedLock)
	}
	l, ok := m.locks[key]
	if !ok {
		l = &keyedLock{}
		m.locks[key] = l
	}
	l.refs++
	return l
}

func (m *KeyedMutex) release(key string, l *keyedLock) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l.refs--
	if l.refs <= 0 {
		delete(m.locks, key)
	}
}

func (m *KeyedMutex) unlocker(key string, l *keyedLock) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			m.release(key, l)
		})
	}
}

// Key joins parts into a lock key.
func Key(parts ...string) string {
	n := len(parts)
	for _, p := range parts {
		n += len(p)
	}
	buf := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, '|')
		}
		buf = append(buf, p...)
	}
	return string(buf)
}
