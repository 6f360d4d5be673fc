// Package query is a keyed cache for remote reads. Concurrent fetches of
// the same key share one request, results stay fresh for a configurable
// time, and mutations invalidate keys by prefix.
package query

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nhle/vanta/internal/api"
)

// Key identifies a cached read, e.g. {"applications", userID}.
type Key []string

// String joins the path-escaped segments with "/", so a segment holding a
// slash cannot be mistaken for two segments.
func (k Key) String() string {
	segs := make([]string, len(k))
	for i, seg := range k {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

func (k Key) hasPrefix(prefix []string) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i, seg := range prefix {
		if k[i] != seg {
			return false
		}
	}
	return true
}

// Options configures a Cache.
type Options struct {
	// Timeout bounds each fetch attempt. Zero means no timeout.
	Timeout time.Duration

	// StaleTime is how long a result is served without refetching.
	StaleTime time.Duration

	// Retries is the default number of retries for failed reads.
	Retries int

	// RetryDelay is the base delay between retries; it doubles per
	// attempt.
	RetryDelay time.Duration
}

type entry struct {
	key       Key
	value     any
	fetchedAt time.Time
}

type flight struct {
	key         Key
	invalidated bool
}

// Cache is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	inflight map[string]*flight
	group    singleflight.Group

	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New creates an empty Cache.
func New(opts Options, logger *zap.Logger) *Cache {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &Cache{
		entries:  make(map[string]entry),
		inflight: make(map[string]*flight),
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

type fetchConfig struct {
	retries int
	fresh   bool
}

// FetchOption adjusts a single Fetch.
type FetchOption func(*fetchConfig)

// NoRetry disables retries for this fetch.
func NoRetry() FetchOption {
	return func(fc *fetchConfig) { fc.retries = 0 }
}

// WithRetries overrides the retry count for this fetch.
func WithRetries(n int) FetchOption {
	return func(fc *fetchConfig) { fc.retries = max(n, 0) }
}

// Fresh skips any cached value and always goes to the network.
func Fresh() FetchOption {
	return func(fc *fetchConfig) { fc.fresh = true }
}

// Fetch returns the cached value for key when it is still fresh and
// otherwise calls fn, sharing the call with concurrent fetches of the same
// key.
func Fetch[T any](
	ctx context.Context,
	c *Cache,
	key Key,
	fn func(context.Context) (T, error),
	opts ...FetchOption,
) (T, error) {
	fc := fetchConfig{retries: c.opts.Retries}
	for _, opt := range opts {
		opt(&fc)
	}

	if !fc.fresh {
		if v, ok := c.lookup(key, true); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}

	ks := key.String()
	v, err, shared := c.group.Do(ks, func() (any, error) {
		f := c.begin(key)
		value, err := c.run(ctx, key, fc.retries, func(ctx context.Context) (any, error) {
			return fn(ctx)
		})
		c.finish(key, f, value, err)
		return value, err
	})
	if shared {
		c.logger.Debug("query shared", zap.String("key", ks))
	}

	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("query %s: cached value has type %T", ks, v)
	}
	return typed, nil
}

// Peek returns the last value stored for key, fresh or not.
func Peek[T any](c *Cache, key Key) (T, bool) {
	var zero T
	v, ok := c.lookup(key, false)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}

// Set stores a value directly, e.g. from a mutation response.
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = entry{key: key, value: value, fetchedAt: c.now()}
}

// Invalidate drops every entry whose key starts with prefix. Fetches in
// flight for matching keys still return to their callers but their results
// are not cached.
func (c *Cache) Invalidate(prefix ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for ks, e := range c.entries {
		if e.key.hasPrefix(prefix) {
			delete(c.entries, ks)
			n++
		}
	}
	for ks, f := range c.inflight {
		if f.key.hasPrefix(prefix) {
			f.invalidated = true
			c.group.Forget(ks)
		}
	}
	c.logger.Debug("query invalidated",
		zap.String("prefix", Key(prefix).String()),
		zap.Int("entries", n),
	)
}

// Clear drops every entry, e.g. on sign-out.
func (c *Cache) Clear() {
	c.Invalidate()
}

func (c *Cache) lookup(key Key, requireFresh bool) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	if requireFresh && c.now().Sub(e.fetchedAt) > c.opts.StaleTime {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) begin(key Key) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := &flight{key: key}
	c.inflight[key.String()] = f
	return f
}

func (c *Cache) finish(key Key, f *flight, value any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ks := key.String()
	if c.inflight[ks] == f {
		delete(c.inflight, ks)
	}
	if err != nil || f.invalidated {
		return
	}
	c.entries[ks] = entry{key: key, value: value, fetchedAt: c.now()}
}

// run calls fn with the configured timeout, retrying transport failures
// and server errors with exponential backoff.
func (c *Cache) run(
	ctx context.Context,
	key Key,
	retries int,
	fn func(context.Context) (any, error),
) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			wait := c.opts.RetryDelay * time.Duration(1<<uint(attempt-1))
			c.logger.Debug("query retry",
				zap.String("key", key.String()),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		value, err := c.attempt(ctx, fn)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if !api.Retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Cache) attempt(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	return fn(ctx)
}
