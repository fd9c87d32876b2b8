package runtime

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// lockTable grants per-account locks: writers exclusively, readers shared.
// A transaction acquires its whole set at once so two transactions can never
// hold part of each other's keys.
type lockTable struct {
	mu      sync.Mutex
	cond    *sync.Cond
	writers map[solana.PublicKey]struct{}
	readers map[solana.PublicKey]int
}

func newLockTable() *lockTable {
	l := &lockTable{
		writers: make(map[solana.PublicKey]struct{}),
		readers: make(map[solana.PublicKey]int),
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *lockTable) available(write, read []solana.PublicKey) bool {
	for _, key := range write {
		if _, ok := l.writers[key]; ok {
			return false
		}
		if l.readers[key] > 0 {
			return false
		}
	}
	for _, key := range read {
		if _, ok := l.writers[key]; ok {
			return false
		}
	}
	return true
}

// acquire blocks until every key is available or ctx is done.
func (l *lockTable) acquire(ctx context.Context, write, read []solana.PublicKey) error {
	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		l.cond.Broadcast()
		l.mu.Unlock()
	})
	defer stop()

	l.mu.Lock()
	defer l.mu.Unlock()
	for !l.available(write, read) {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, key := range write {
		l.writers[key] = struct{}{}
	}
	for _, key := range read {
		l.readers[key]++
	}
	return nil
}

func (l *lockTable) release(write, read []solana.PublicKey) {
	l.mu.Lock()
	for _, key := range write {
		delete(l.writers, key)
	}
	for _, key := range read {
		if l.readers[key] <= 1 {
			delete(l.readers, key)
		} else {
			l.readers[key]--
		}
	}
	l.cond.Broadcast()
	l.mu.Unlock()
}
