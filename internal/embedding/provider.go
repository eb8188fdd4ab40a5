package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrDimensionMismatch is returned when two vectors that must be compared have different lengths.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Provider converts free text into a fixed-dimension vector.
//
// A Provider is constructed once per process and shared by every request.
// Implementations must be deterministic for identical input and must return a
// (possibly all-zero) vector for empty text instead of an error. Providers that
// are not safe for concurrent use should be wrapped with Serialize.
type Provider interface {
	Name() string
	Model() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ProviderError reports a failed embedding call.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Wrap turns err into a *ProviderError unless it already is one.
func Wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Err: err}
}

// Zero returns an all-zero vector of the given dimension. Dimensions below one
// yield a single-element vector so callers always get something to score.
func Zero(dimension int) []float64 {
	if dimension < 1 {
		dimension = 1
	}
	return make([]float64, dimension)
}
