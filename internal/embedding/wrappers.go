package embedding

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"

	"github.com/spigell/internship-matcher/internal/metrics"
)

type serialized struct {
	mu   sync.Mutex
	next Provider
}

// Serialize makes every Embed call on p run one at a time.
func Serialize(p Provider) Provider {
	return &serialized{next: p}
}

func (s *serialized) Name() string   { return s.next.Name() }
func (s *serialized) Model() string  { return s.next.Model() }
func (s *serialized) Dimension() int { return s.next.Dimension() }

func (s *serialized) Embed(ctx context.Context, text string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next.Embed(ctx, text)
}

// Cache memoizes vectors per distinct text. Every call returns a fresh copy so
// callers keep exclusive ownership of their vectors.
type Cache struct {
	next Provider

	mu      sync.RWMutex
	vectors map[[sha256.Size]byte][]float64
}

// NewCache wraps p with an unbounded in-process cache. Only successful
// results are cached.
func NewCache(p Provider) *Cache {
	return &Cache{next: p, vectors: make(map[[sha256.Size]byte][]float64)}
}

func (c *Cache) Name() string   { return c.next.Name() }
func (c *Cache) Model() string  { return c.next.Model() }
func (c *Cache) Dimension() int { return c.next.Dimension() }

func (c *Cache) Embed(ctx context.Context, text string) ([]float64, error) {
	key := sha256.Sum256([]byte(text))

	c.mu.RLock()
	cached, ok := c.vectors[key]
	c.mu.RUnlock()
	if ok {
		metrics.EmbeddingCacheHits.WithLabelValues(c.next.Name()).Inc()
		return append([]float64(nil), cached...), nil
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if _, ok := c.vectors[key]; !ok {
		c.vectors[key] = append([]float64(nil), vec...)
	}
	c.mu.Unlock()

	return vec, nil
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.vectors)
}

type instrumented struct {
	next Provider
}

// Instrument records call counts and latency of p in Prometheus and wraps
// failures into *ProviderError.
func Instrument(p Provider) Provider {
	return &instrumented{next: p}
}

func (i *instrumented) Name() string   { return i.next.Name() }
func (i *instrumented) Model() string  { return i.next.Model() }
func (i *instrumented) Dimension() int { return i.next.Dimension() }

func (i *instrumented) Embed(ctx context.Context, text string) ([]float64, error) {
	start := time.Now()
	vec, err := i.next.Embed(ctx, text)
	metrics.EmbeddingDuration.WithLabelValues(i.next.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.EmbeddingRequests.WithLabelValues(i.next.Name(), metrics.OutcomeError).Inc()
		return nil, Wrap(i.next.Name(), err)
	}

	metrics.EmbeddingRequests.WithLabelValues(i.next.Name(), metrics.OutcomeSuccess).Inc()
	return vec, nil
}
