// Package lock serializes critical sections per user inside one process.
//
// A Manager keeps one entry per user that has a section in flight. The entry is
// a channel closed when that section returns, so waiters block on the channel
// rather than on a mutex and can give up when their deadline passes. Sections
// for different users never wait on each other.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/baharkarakas/point-service/internal/metrics"
)

const DefaultTimeout = 3 * time.Second

var ErrLockTimeout = errors.New("timed out waiting for user lock")

type Manager struct {
	mu      sync.Mutex
	entries map[int64]chan struct{}
	timeout time.Duration
}

// NewManager returns a Manager whose WithLock waits at most timeout.
// A non-positive timeout means DefaultTimeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{entries: make(map[int64]chan struct{}), timeout: timeout}
}

func (m *Manager) Timeout() time.Duration { return m.timeout }

func (m *Manager) WithLock(ctx context.Context, userID int64, fn func() error) error {
	return m.WithLockTimeout(ctx, userID, m.timeout, fn)
}

// WithLockTimeout runs fn once no other section for userID is running.
// If the wait exceeds timeout it returns ErrLockTimeout, and if ctx ends first
// it returns ctx.Err(); fn is not called in either case. Once fn starts it runs
// to completion and the entry is released whatever fn returns, panics included.
func (m *Manager) WithLockTimeout(ctx context.Context, userID int64, timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		timeout = m.timeout
	}
	done, err := m.acquire(ctx, userID, timeout)
	if err != nil {
		return err
	}
	defer m.release(userID, done)
	return fn()
}

func (m *Manager) acquire(ctx context.Context, userID int64, timeout time.Duration) (chan struct{}, error) {
	start := time.Now()
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		m.mu.Lock()
		inflight, busy := m.entries[userID]
		if !busy {
			done := make(chan struct{})
			m.entries[userID] = done
			m.mu.Unlock()
			metrics.LocksHeld.Inc()
			metrics.LockWaitSeconds.Observe(time.Since(start).Seconds())
			return done, nil
		}
		m.mu.Unlock()

		if timer == nil {
			timer = time.NewTimer(timeout)
		}
		select {
		case <-inflight:
			// the running section finished; race the other waiters for the entry
		case <-timer.C:
			metrics.LockTimeouts.Inc()
			return nil, fmt.Errorf("%w: user %d after %s", ErrLockTimeout, userID, timeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (m *Manager) release(userID int64, done chan struct{}) {
	m.mu.Lock()
	if m.entries[userID] == done {
		delete(m.entries, userID)
	}
	m.mu.Unlock()
	close(done)
	metrics.LocksHeld.Dec()
}

// Held reports how many users currently have a section in flight.
func (m *Manager) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
