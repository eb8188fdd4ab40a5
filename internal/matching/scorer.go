package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/spigell/internship-matcher/internal/catalog"
	"github.com/spigell/internship-matcher/internal/embedding"
	"github.com/spigell/internship-matcher/internal/skills"
)

const (
	// SemanticWeight and SkillWeight define the fixed blend of the final score.
	SemanticWeight = 0.65
	SkillWeight    = 0.35
)

// ErrEmptyDocument is returned by callers that reject blank document text
// before it reaches the scorer.
var ErrEmptyDocument = errors.New("document text is required")

// MatchResult is the score of one document against one posting.
type MatchResult struct {
	Posting         *catalog.Posting
	ExtractedSkills skills.SkillSet
	SemanticScore   float64
	SkillMatch      float64
	FinalScore      float64
}

type matchResultJSON struct {
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	RequiredSkills  skills.SkillSet `json:"required_skills"`
	ExtractedSkills skills.SkillSet `json:"extracted_skills"`
	SemanticScore   float64         `json:"semantic_score"`
	SkillMatch      float64         `json:"skill_match"`
	FinalScore      float64         `json:"final_score"`
}

// MarshalJSON flattens the posting into the result.
func (r *MatchResult) MarshalJSON() ([]byte, error) {
	view := matchResultJSON{
		ExtractedSkills: r.ExtractedSkills,
		SemanticScore:   r.SemanticScore,
		SkillMatch:      r.SkillMatch,
		FinalScore:      r.FinalScore,
	}
	if r.Posting != nil {
		view.Title = r.Posting.Title
		view.Description = r.Posting.Description
		view.RequiredSkills = r.Posting.RequiredSkills
	}
	return json.Marshal(view)
}

// Scorer blends semantic similarity with skill overlap.
// It holds no mutable state and is safe for concurrent use when its provider is.
type Scorer struct {
	provider embedding.Provider
	logger   *zap.Logger
}

func NewScorer(provider embedding.Provider, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{provider: provider, logger: logger}
}

// Score embeds both texts and scores documentText against posting.
func (s *Scorer) Score(ctx context.Context, documentText string, documentSkills skills.SkillSet, posting *catalog.Posting) (*MatchResult, error) {
	docVec, err := s.embed(ctx, documentText)
	if err != nil {
		return nil, err
	}
	return s.scoreVector(ctx, docVec, documentSkills, posting)
}

func (s *Scorer) scoreVector(ctx context.Context, docVec []float64, documentSkills skills.SkillSet, posting *catalog.Posting) (*MatchResult, error) {
	if posting == nil {
		return nil, errors.New("posting is required")
	}

	postVec, err := s.embed(ctx, posting.Description)
	if err != nil {
		return nil, err
	}

	semantic, err := CosineSimilarity(docVec, postVec)
	if err != nil {
		return nil, embedding.Wrap(s.provider.Name(), err)
	}

	skillMatch := SkillMatch(documentSkills, posting.RequiredSkills)

	result := &MatchResult{
		Posting:         posting,
		ExtractedSkills: documentSkills,
		SemanticScore:   semantic,
		SkillMatch:      skillMatch,
		FinalScore:      Blend(semantic, skillMatch),
	}

	s.logger.Debug("posting scored",
		zap.String("posting", posting.Title),
		zap.Float64("semantic_score", result.SemanticScore),
		zap.Float64("skill_match", result.SkillMatch),
		zap.Float64("final_score", result.FinalScore),
	)

	return result, nil
}

func (s *Scorer) embed(ctx context.Context, text string) ([]float64, error) {
	vec, err := s.provider.Embed(ctx, text)
	if err != nil {
		return nil, embedding.Wrap(s.provider.Name(), err)
	}
	return vec, nil
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|). It is zero when either
// vector has zero norm, regardless of length.
func CosineSimilarity(a, b []float64) (float64, error) {
	normA := norm(a)
	normB := norm(b)
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", embedding.ErrDimensionMismatch, len(a), len(b))
	}

	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}

	sim := dot / (normA * normB)
	// clamp floating point drift
	return math.Max(-1, math.Min(1, sim)), nil
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// SkillMatch is the share of required skills present in the document, or zero
// when nothing is required.
func SkillMatch(documentSkills, required skills.SkillSet) float64 {
	if len(required) == 0 {
		return 0
	}
	return float64(documentSkills.Intersect(required).Len()) / float64(len(required))
}

// Blend combines the two signals with the fixed weights.
func Blend(semantic, skillMatch float64) float64 {
	return SemanticWeight*semantic + SkillWeight*skillMatch
}
