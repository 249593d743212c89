package mocks

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Locker is an in-memory domain.DistributedLock. Keys never expire.
type Locker struct {
	mu     sync.Mutex
	held   map[string]string
	seq    int
	Err    error
	Denied bool

	LockCalls   int
	UnlockCalls int
}

func NewLocker() *Locker {
	return &Locker{held: map[string]string{}}
}

func (l *Locker) Ping(ctx context.Context) (err error) {
	return l.Err
}

func (l *Locker) Lock(ctx context.Context, lockKey string, lockTimeDuration time.Duration) (token string, ok bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.LockCalls++

	if l.Err != nil {
		return "", false, l.Err
	}
	if _, taken := l.held[lockKey]; taken || l.Denied {
		return "", false, nil
	}

	l.seq++
	token = strconv.Itoa(l.seq)
	l.held[lockKey] = token
	return token, true, nil
}

func (l *Locker) Unlock(ctx context.Context, lockKey, token string) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.UnlockCalls++

	if l.held[lockKey] == token {
		delete(l.held, lockKey)
	}

	return nil
}

func (l *Locker) Close() error {
	return nil
}

func (l *Locker) IsHeld(lockKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[lockKey]
	return ok
}
