// Package cache holds derived views, such as statistics, keyed by the state
// version they were computed from.
package cache

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"meinbudget/internal/log"
)

// Cache is the read/write surface shared by the cache implementations.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Size() int
}

var _ Cache[string, int] = (*LRU[string, int])(nil)

// Memo computes values on a miss and collapses concurrent computations of
// the same key into one call.
type Memo[K comparable, V any] struct {
	lru   *LRU[K, V]
	group singleflight.Group
}

func NewMemo[K comparable, V any](maxSize int, ttl time.Duration) *Memo[K, V] {
	return &Memo[K, V]{lru: NewLRU[K, V](maxSize, ttl)}
}

// Get returns the cached value for key or stores the result of compute.
func (m *Memo[K, V]) Get(key K, compute func() (V, error)) (V, error) {
	if v, ok := m.lru.Get(key); ok {
		return v, nil
	}
	res, err, _ := m.group.Do(fmt.Sprint(key), func() (any, error) {
		if v, ok := m.lru.Get(key); ok {
			return v, nil
		}
		v, err := compute()
		if err != nil {
			return v, err
		}
		m.lru.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

func (m *Memo[K, V]) CleanExpired() int { return m.lru.CleanExpired() }

func (m *Memo[K, V]) Stats() Stats { return m.lru.Stats() }

// Cleaner is implemented by caches that drop expired entries on demand.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically cleans registered caches.
type Janitor struct {
	caches []Cleaner
	logger *log.Logger
	stop   chan struct{}
	done   chan struct{}
}

func NewJanitor(logger *log.Logger) *Janitor {
	if logger == nil {
		logger = log.Discard()
	}
	return &Janitor{logger: logger.WithComponent(log.ComponentCache)}
}

// Register must be called before Start.
func (j *Janitor) Register(c Cleaner) {
	j.caches = append(j.caches, c)
}

func (j *Janitor) Start(interval time.Duration) {
	j.stop = make(chan struct{})
	j.done = make(chan struct{})
	go j.run(interval)
}

func (j *Janitor) run(interval time.Duration) {
	defer close(j.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.CleanOnce(); n > 0 {
				j.logger.Debug("Expired cache entries removed", log.FieldCount, n)
			}
		case <-j.stop:
			return
		}
	}
}

// CleanOnce cleans every registered cache and returns the total removed.
func (j *Janitor) CleanOnce() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the cleanup loop. It is safe to call when Start was never called.
func (j *Janitor) Stop() {
	if j.stop == nil {
		return
	}
	close(j.stop)
	<-j.done
	j.stop = nil
}
