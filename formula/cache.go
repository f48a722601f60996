package formula

import (
	"sync"

	"github.com/gammazero/deque"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

const DefaultCacheEntries = 1024

type CacheOptions struct {
	// MaxEntries bounds number of cached sources, oldest are evicted first. 0 means default
	MaxEntries int
	// Options are applied when compiling and evaluating every cached formula
	Options []Option
	Log     *zap.SugaredLogger
}

type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Fallbacks uint64
	Entries   int
}

type cacheKey [32]byte

// cacheEntry is either a compiled formula or the compile error of the source
type cacheEntry struct {
	formula *Formula
	err     error
}

// Cache maps formula source to its compilation result. Sources which do not compile are
// cached too, so a broken widget formula is not re-parsed on every refresh.
// Cache is safe for concurrent use.
type Cache struct {
	mutex      sync.RWMutex
	entries    map[cacheKey]cacheEntry
	order      *deque.Deque[cacheKey]
	maxEntries int
	opts       *options
	salt       string
	log        *zap.SugaredLogger

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
	fallbacks atomic.Uint64
}

var defaultCache = NewCache(CacheOptions{})

func NewCache(par CacheOptions) *Cache {
	ret := &Cache{
		entries:    make(map[cacheKey]cacheEntry),
		order:      new(deque.Deque[cacheKey]),
		maxEntries: par.MaxEntries,
		opts:       makeOptions(par.Options),
		log:        par.Log,
	}
	if ret.maxEntries <= 0 {
		ret.maxEntries = DefaultCacheEntries
	}
	if ret.log == nil {
		ret.log = zap.NewNop().Sugar()
	}
	ret.salt = ret.opts.fingerprint()
	return ret
}

func (c *Cache) key(source string) cacheKey {
	return blake2b.Sum256([]byte(c.salt + "\x00" + source))
}

// Get returns compiled formula for the source, compiling it on first use
func (c *Cache) Get(source string) (*Formula, error) {
	k := c.key(source)

	c.mutex.RLock()
	e, found := c.entries[k]
	c.mutex.RUnlock()

	if found {
		c.hits.Inc()
		return e.formula, e.err
	}
	c.misses.Inc()

	f, err := compileWith(source, c.opts)
	if err != nil {
		c.log.Debugf("formula '%s' does not compile: %v", source, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if e, found = c.entries[k]; found {
		// compiled concurrently by another caller
		return e.formula, e.err
	}
	c.entries[k] = cacheEntry{formula: f, err: err}
	c.order.PushBack(k)
	for c.order.Len() > c.maxEntries {
		delete(c.entries, c.order.PopFront())
		c.evictions.Inc()
	}
	return f, err
}

// EvaluateOrFallback returns fallback if source does not compile or evaluation fails
func (c *Cache) EvaluateOrFallback(source string, v, fallback Value) Value {
	f, err := c.Get(source)
	if err != nil {
		c.fallbacks.Inc()
		return fallback
	}
	ret, err := f.Evaluate(v)
	if err != nil {
		c.fallbacks.Inc()
		c.log.Debugf("formula '%s' with value %#v: %v. Fallback to %#v", source, v, err, fallback)
		return fallback
	}
	return ret
}

func (c *Cache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.entries)
}

// Purge removes all entries. Counters are not reset
func (c *Cache) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[cacheKey]cacheEntry)
	c.order = new(deque.Deque[cacheKey])
}

func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Fallbacks: c.fallbacks.Load(),
		Entries:   c.Len(),
	}
}
