package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

const name = "tfidf"

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:[+#]+|['’][\p{L}]+)*`)

// Embedder is an offline TF-IDF vectorizer. The vocabulary and IDF weights are
// fixed when the embedder is built, after which it is read-only and safe for
// concurrent use.
type Embedder struct {
	vocabulary map[string]int
	idf        []float64
	stopwords  map[string]struct{}
}

// New builds the vocabulary and IDF values from corpus. It fails when the
// corpus yields no tokens at all.
func New(corpus []string) (*Embedder, error) {
	e := &Embedder{stopwords: defaultStopwords()}

	if len(corpus) == 0 {
		return nil, errors.New("empty corpus for tf-idf")
	}

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return nil, errors.New("no tokens found in tf-idf corpus")
	}
	sort.Strings(terms)

	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// smoothed idf
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	return e, nil
}

func (e *Embedder) Name() string { return name }

func (e *Embedder) Model() string { return name }

func (e *Embedder) Dimension() int { return len(e.idf) }

// Embed returns the L2-normalized TF-IDF vector of text. Text with no known
// tokens, including empty text, maps to the zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, len(e.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}

	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * e.idf[idx]
	}

	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (e *Embedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"must", "looking", "required", "preferred", "intern", "skilled", "knowledge", "experience",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
