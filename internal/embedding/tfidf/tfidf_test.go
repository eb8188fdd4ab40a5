package tfidf

import (
	"context"
	"math"
	"reflect"
	"testing"
)

var corpus = []string{
	"Looking for an intern skilled in Python, ML algorithms, data cleaning, and deep learning.",
	"Intern must know React, JavaScript, HTML, CSS, and frontend development.",
	"Knowledge of NLP, transformers, deep learning, and Python is required.",
}

func TestNewRejectsEmptyCorpus(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatal("expected error for empty corpus")
	}
	if _, err := New([]string{"the and of"}); err == nil {
		t.Fatal("expected error for stopword-only corpus")
	}
}

func TestEmbedNormalizedAndDeterministic(t *testing.T) {
	t.Parallel()

	e, err := New(corpus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	vec, err := e.Embed(context.Background(), "Python and deep learning for NLP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != e.Dimension() {
		t.Fatalf("expected dimension %d, got %d", e.Dimension(), len(vec))
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-9 {
		t.Fatalf("expected unit norm, got %v", math.Sqrt(norm))
	}

	again, _ := e.Embed(context.Background(), "Python and deep learning for NLP")
	if !reflect.DeepEqual(vec, again) {
		t.Fatal("expected identical vectors for identical text")
	}
}

func TestEmbedDegenerateText(t *testing.T) {
	t.Parallel()

	e, err := New(corpus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, text := range []string{"", "completely unrelated gardening"} {
		vec, err := e.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", text, err)
		}
		if len(vec) != e.Dimension() {
			t.Fatalf("expected dimension %d, got %d", e.Dimension(), len(vec))
		}
		for _, v := range vec {
			if v != 0 {
				t.Fatalf("expected zero vector for %q, got %v", text, vec)
			}
		}
	}
}

func TestTokenizeKeepsLanguageSuffixes(t *testing.T) {
	t.Parallel()

	e, err := New([]string{"C++ and C# developers"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := e.tokenize("C++ and C# developers")
	expect := []string{"c++", "c#", "developers"}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("expected %v, got %v", expect, got)
	}
}

func TestEmbedHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	e, err := New(corpus)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Embed(ctx, "python"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
