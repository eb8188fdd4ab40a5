package matching

import (
	"context"
	"sort"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/internship-matcher/internal/catalog"
	"github.com/spigell/internship-matcher/internal/metrics"
	"github.com/spigell/internship-matcher/internal/skills"
	"github.com/spigell/internship-matcher/internal/utils"
)

const (
	// DefaultLimit is the number of results returned when the caller does not ask for a specific amount.
	DefaultLimit = 5

	defaultMaxLogLength = 200
)

// Ranker scores a document against every posting of a catalog and keeps the best ones.
type Ranker struct {
	vocabulary *skills.Vocabulary
	scorer     *Scorer
	workers    int
	maxLogLen  int
	logger     *zap.Logger
}

// RankerConfig tunes the Ranker. Zero values pick the defaults.
type RankerConfig struct {
	// Workers bounds how many postings are scored concurrently. Values below 2 score sequentially.
	Workers      int
	MaxLogLength int
}

func NewRanker(vocabulary *skills.Vocabulary, scorer *Scorer, cfg RankerConfig, logger *zap.Logger) *Ranker {
	if vocabulary == nil {
		vocabulary = skills.DefaultVocabulary()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	return &Ranker{
		vocabulary: vocabulary,
		scorer:     scorer,
		workers:    workers,
		maxLogLen:  maxLogLen,
		logger:     logger,
	}
}

// ExtractSkills returns the vocabulary terms found in text.
func (r *Ranker) ExtractSkills(text string) skills.SkillSet {
	return r.vocabulary.Extract(text)
}

// Rank scores documentText against every posting and returns at most limit
// results ordered by final score, highest first. Postings with equal scores
// keep their catalog order. The first embedding failure aborts the whole call.
func (r *Ranker) Rank(ctx context.Context, documentText string, postings []catalog.Posting, limit int) ([]*MatchResult, error) {
	start := time.Now()

	results, err := r.rank(ctx, documentText, postings, limit)

	metrics.RankDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RankRequests.WithLabelValues(metrics.OutcomeError).Inc()
		r.logger.Warn("ranking failed", zap.Error(err))
		return nil, err
	}
	metrics.RankRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()

	return results, nil
}

func (r *Ranker) rank(ctx context.Context, documentText string, postings []catalog.Posting, limit int) ([]*MatchResult, error) {
	if limit <= 0 {
		return []*MatchResult{}, nil
	}

	documentSkills := r.vocabulary.Extract(documentText)

	r.logger.Debug("ranking document",
		zap.Int("document_length", utf8.RuneCountInString(documentText)),
		zap.String("document_preview", utils.LogPreview(documentText, r.maxLogLen)),
		zap.Strings("extracted_skills", documentSkills.Sorted()),
		zap.Int("postings", len(postings)),
	)

	if len(postings) == 0 {
		return []*MatchResult{}, nil
	}

	docVec, err := r.scorer.embed(ctx, documentText)
	if err != nil {
		return nil, err
	}

	results := make([]*MatchResult, len(postings))
	if r.workers < 2 {
		for i := range postings {
			res, err := r.scorer.scoreVector(ctx, docVec, documentSkills, &postings[i])
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for i := range postings {
			g.Go(func() error {
				res, err := r.scorer.scoreVector(gctx, docVec, documentSkills, &postings[i])
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	metrics.PostingsScored.Add(float64(len(results)))

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})

	if limit < len(results) {
		results = results[:limit]
	}

	r.logger.Info("ranking completed",
		zap.Int("postings", len(postings)),
		zap.Int("returned", len(results)),
		zap.Int("extracted_skills", documentSkills.Len()),
		zap.String("top_posting", results[0].Posting.Title),
		zap.Float64("top_score", results[0].FinalScore),
	)

	return results, nil
}
