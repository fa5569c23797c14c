// Package lock provides non-recursive mutual exclusion primitives that share
// the sync.Locker surface, so call sites can switch between a spinning ticket
// lock and a kernel-assisted mutex without changes.
package lock

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Spin is a FIFO ticket lock for very short critical sections.
// The zero value is unlocked. It must not be copied after first use.
type Spin struct {
	next    atomic.Uint32
	serving atomic.Uint32
}

func (s *Spin) Lock() {
	ticket := s.next.Add(1) - 1
	for spins := 0; s.serving.Load() != ticket; spins++ {
		if spins > 64 {
			runtime.Gosched()
		}
	}
}

func (s *Spin) Unlock() {
	if s.serving.Load() == s.next.Load() {
		panic("lock: unlock of unlocked Spin")
	}
	s.serving.Add(1)
}

// TryLock acquires the lock only if nobody holds or waits for it.
func (s *Spin) TryLock() bool {
	serving := s.serving.Load()
	return s.next.CompareAndSwap(serving, serving+1)
}

// Mutex is the kernel-assisted variant.
type Mutex struct {
	mu sync.Mutex
}

func (m *Mutex) Lock()         { m.mu.Lock() }
func (m *Mutex) Unlock()       { m.mu.Unlock() }
func (m *Mutex) TryLock() bool { return m.mu.TryLock() }

// Guard acquires l and returns its release. Release may be called more than
// once; only the first call unlocks.
//
//	defer lock.Guard(&mu)()
func Guard(l sync.Locker) (release func()) {
	l.Lock()
	var once sync.Once
	return func() {
		once.Do(l.Unlock)
	}
}
