package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/spigell/internship-matcher/internal/metrics"
)

type countingProvider struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	err      error
}

func (p *countingProvider) Name() string   { return "counting" }
func (p *countingProvider) Model() string  { return "counting-v1" }
func (p *countingProvider) Dimension() int { return 2 }

func (p *countingProvider) Embed(_ context.Context, text string) ([]float64, error) {
	p.calls.Add(1)
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		seen := p.maxSeen.Load()
		if n <= seen || p.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return []float64{float64(len(text)), 1}, nil
}

func TestCacheReturnsCopies(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{}
	cache := NewCache(inner)

	first, err := cache.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first[0] = 42

	second, err := cache.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second[0] != 5 {
		t.Fatalf("expected cached vector to be isolated from caller mutation, got %v", second)
	}

	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}

	if cache.Len() != 1 {
		t.Fatalf("expected 1 cached entry, got %d", cache.Len())
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{err: errors.New("boom")}
	cache := NewCache(inner)

	for i := 0; i < 2; i++ {
		if _, err := cache.Embed(context.Background(), "x"); err == nil {
			t.Fatal("expected error")
		}
	}

	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("expected failures to reach provider every time, got %d calls", got)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", cache.Len())
	}
}

func TestSerialize(t *testing.T) {
	t.Parallel()

	inner := &countingProvider{}
	p := Serialize(inner)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Embed(context.Background(), "text"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := inner.maxSeen.Load(); got != 1 {
		t.Fatalf("expected at most one concurrent call, saw %d", got)
	}
	if p.Name() != "counting" || p.Model() != "counting-v1" || p.Dimension() != 2 {
		t.Fatalf("expected metadata to pass through")
	}
}

func TestInstrumentWrapsErrors(t *testing.T) {
	t.Parallel()

	cause := errors.New("quota exceeded")
	p := Instrument(&countingProvider{err: cause})

	_, err := p.Embed(context.Background(), "x")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %T", err)
	}
	if pe.Provider != "counting" {
		t.Fatalf("unexpected provider: %q", pe.Provider)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestWrapKeepsExistingProviderError(t *testing.T) {
	t.Parallel()

	original := &ProviderError{Provider: "a", Err: errors.New("x")}
	if got := Wrap("b", original); got != error(original) {
		t.Fatalf("expected original error to be returned")
	}
	if Wrap("b", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestZero(t *testing.T) {
	t.Parallel()

	if got := len(Zero(3)); got != 3 {
		t.Fatalf("expected length 3, got %d", got)
	}
	if got := len(Zero(0)); got != 1 {
		t.Fatalf("expected length 1 for unknown dimension, got %d", got)
	}
}

// labeledProvider gives a test its own metric label set.
type labeledProvider struct {
	countingProvider
	name string
}

func (p *labeledProvider) Name() string { return p.name }

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestInstrumentAndCacheMetrics(t *testing.T) {
	t.Parallel()

	base := &labeledProvider{name: "metrics-probe"}
	p := NewCache(Instrument(base))

	for _, text := range []string{"a", "a", "bb", "a"} {
		if _, err := p.Embed(context.Background(), text); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := counterValue(t, metrics.EmbeddingRequests.WithLabelValues("metrics-probe", metrics.OutcomeSuccess)); got != 2 {
		t.Fatalf("expected 2 provider requests, got %v", got)
	}
	if got := counterValue(t, metrics.EmbeddingCacheHits.WithLabelValues("metrics-probe")); got != 2 {
		t.Fatalf("expected 2 cache hits, got %v", got)
	}

	failing := Instrument(&labeledProvider{name: "metrics-probe-failing", countingProvider: countingProvider{err: errors.New("down")}})
	if _, err := failing.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if got := counterValue(t, metrics.EmbeddingRequests.WithLabelValues("metrics-probe-failing", metrics.OutcomeError)); got != 1 {
		t.Fatalf("expected 1 failed request, got %v", got)
	}
}
