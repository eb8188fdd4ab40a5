package skills

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// defaultTerms is the built-in skill list used when no vocabulary is configured.
var defaultTerms = []string{
	"python", "java", "c++", "sql", "excel", "pandas", "numpy",
	"machine learning", "deep learning", "nlp", "html", "css",
	"javascript", "react", "node", "flask", "django",
	"power bi", "data analysis", "data science",
}

// Vocabulary is an ordered, immutable set of known skill terms.
// It is safe for concurrent use.
type Vocabulary struct {
	terms []string
	index map[string]struct{}
}

// NewVocabulary builds a vocabulary from the given terms. Terms are trimmed and
// lowercased; blank terms and duplicates are rejected.
func NewVocabulary(terms []string) (*Vocabulary, error) {
	v := &Vocabulary{
		terms: make([]string, 0, len(terms)),
		index: make(map[string]struct{}, len(terms)),
	}

	for _, raw := range terms {
		term := Normalize(strings.TrimSpace(raw))
		if term == "" {
			return nil, fmt.Errorf("skill vocabulary contains a blank term")
		}
		if _, ok := v.index[term]; ok {
			return nil, fmt.Errorf("skill vocabulary contains duplicate term %q", term)
		}
		v.index[term] = struct{}{}
		v.terms = append(v.terms, term)
	}

	return v, nil
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, err := NewVocabulary(defaultTerms)
	if err != nil {
		panic(err)
	}
	return v
}

// DefaultTerms returns a copy of the built-in skill list.
func DefaultTerms() []string {
	return append([]string(nil), defaultTerms...)
}

// Normalize applies the only normalization skills get: lowercasing.
func Normalize(s string) string {
	return strings.ToLower(s)
}

// Contains reports whether term is part of the vocabulary.
func (v *Vocabulary) Contains(term string) bool {
	if v == nil {
		return false
	}
	_, ok := v.index[Normalize(term)]
	return ok
}

// Terms returns the vocabulary terms in configured order.
func (v *Vocabulary) Terms() []string {
	if v == nil {
		return nil
	}
	return append([]string(nil), v.terms...)
}

func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.terms)
}

// Extract returns every vocabulary term that occurs in text as a contiguous
// substring after lowercasing. There are no word boundaries: "java" is found
// inside "javascript".
func (v *Vocabulary) Extract(text string) SkillSet {
	found := make(SkillSet)
	if v == nil || text == "" {
		return found
	}

	lower := Normalize(text)
	for _, term := range v.terms {
		if strings.Contains(lower, term) {
			found[term] = struct{}{}
		}
	}

	return found
}

// SkillSet is a set of normalized skill terms.
type SkillSet map[string]struct{}

// NewSkillSet builds a set from the given terms, lowercasing and deduplicating them.
func NewSkillSet(terms ...string) SkillSet {
	set := make(SkillSet, len(terms))
	for _, t := range terms {
		t = Normalize(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

func (s SkillSet) Has(term string) bool {
	_, ok := s[Normalize(term)]
	return ok
}

func (s SkillSet) Len() int { return len(s) }

// Intersect returns the terms present in both sets.
func (s SkillSet) Intersect(other SkillSet) SkillSet {
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	out := make(SkillSet)
	for t := range small {
		if _, ok := big[t]; ok {
			out[t] = struct{}{}
		}
	}
	return out
}

// Sorted returns the set members in lexical order, for stable output.
func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s SkillSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}
