package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/internship-matcher/internal/catalog"
	"github.com/spigell/internship-matcher/internal/document"
	"github.com/spigell/internship-matcher/internal/embedding"
	"github.com/spigell/internship-matcher/internal/embedding/gemini"
	"github.com/spigell/internship-matcher/internal/embedding/openai"
	"github.com/spigell/internship-matcher/internal/embedding/tfidf"
	"github.com/spigell/internship-matcher/internal/logger"
	"github.com/spigell/internship-matcher/internal/matching"
	"github.com/spigell/internship-matcher/internal/secrets"
	"github.com/spigell/internship-matcher/internal/skills"
)

const (
	providerTFIDF  = "tfidf"
	providerGemini = "gemini"
	providerOpenAI = "openai"
)

// components is everything a command needs to rank documents. They are built
// once per process and shared.
type components struct {
	vocabulary *skills.Vocabulary
	postings   []catalog.Posting
	provider   embedding.Provider
	ranker     *matching.Ranker
}

// setup builds the logger and reads the config. Any failure is fatal.
func setup() (*zap.Logger, *Config) {
	log, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating a logger: %s\n", err)
		os.Exit(1)
	}

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Debug("starting with config", zap.Any("config", redacted(config)))

	return log, config
}

func buildComponents(ctx context.Context, config *Config, log *zap.Logger) (*components, error) {
	vocabulary := skills.DefaultVocabulary()
	if len(config.Skills.Vocabulary) > 0 {
		v, err := skills.NewVocabulary(config.Skills.Vocabulary)
		if err != nil {
			return nil, fmt.Errorf("skills vocabulary: %w", err)
		}
		vocabulary = v
	}

	postings, err := loadPostings(config.Catalog)
	if err != nil {
		return nil, err
	}

	provider, err := newProvider(ctx, config.Embedder, catalog.Descriptions(postings), log)
	if err != nil {
		return nil, err
	}

	rankLogger := logger.WithProviderFields(log, provider.Name(), provider.Model(), provider.Dimension())
	scorer := matching.NewScorer(provider, rankLogger)
	ranker := matching.NewRanker(vocabulary, scorer, matching.RankerConfig{
		Workers:      config.Matching.Workers,
		MaxLogLength: config.Matching.MaxLogLength,
	}, rankLogger)

	log.Info("matcher is ready",
		zap.Int("postings", len(postings)),
		zap.Int("vocabulary", vocabulary.Len()),
		zap.String(logger.FieldProvider, provider.Name()),
	)

	return &components{
		vocabulary: vocabulary,
		postings:   postings,
		provider:   provider,
		ranker:     ranker,
	}, nil
}

func loadPostings(cfg *CatalogConfig) ([]catalog.Posting, error) {
	if cfg == nil || strings.TrimSpace(cfg.File) == "" {
		return catalog.Default(), nil
	}
	postings, err := catalog.Load(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return postings, nil
}

// newProvider selects the embedding backend and stacks the wrappers on top:
// serialization closest to the backend, then metrics, then the cache so that
// cache hits are not counted as provider requests.
func newProvider(ctx context.Context, cfg *EmbedderConfig, corpus []string, log *zap.Logger) (embedding.Provider, error) {
	if cfg == nil {
		cfg = &EmbedderConfig{}
	}

	base, err := newBaseProvider(ctx, cfg, corpus, log)
	if err != nil {
		return nil, err
	}

	provider := base
	if cfg.Serialize {
		provider = embedding.Serialize(provider)
	}
	provider = embedding.Instrument(provider)
	if cfg.Cache {
		provider = embedding.NewCache(provider)
	}

	return provider, nil
}

func newBaseProvider(ctx context.Context, cfg *EmbedderConfig, corpus []string, log *zap.Logger) (embedding.Provider, error) {
	kind := strings.TrimSpace(strings.ToLower(cfg.Type))

	switch kind {
	case "", providerTFIDF:
		embedder, err := tfidf.New(corpus)
		if err != nil {
			return nil, fmt.Errorf("preparing tf-idf embedder: %w", err)
		}
		return embedder, nil

	case providerGemini:
		gcfg := cfg.Gemini
		if gcfg == nil {
			gcfg = &GeminiConfig{}
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  gcfg.APIKeyFile,
			Env:   "GEMINI_API_KEY",
			Value: gcfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set embedder.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
		}

		genLogger := logger.WithProviderFields(log, providerGemini, gcfg.Model, gcfg.Dimension).
			With(zap.Int("retry_attempts", gcfg.MaxRetries))

		embedder, err := gemini.New(ctx, gemini.Config{
			APIKey:     apiKey,
			Model:      gcfg.Model,
			Dimension:  gcfg.Dimension,
			MaxRetries: gcfg.MaxRetries,
		}, genLogger)
		if err != nil {
			return nil, fmt.Errorf("creating gemini embedder: %w", err)
		}
		return embedder, nil

	case providerOpenAI:
		ocfg := cfg.OpenAI
		if ocfg == nil {
			ocfg = &OpenAIConfig{}
		}
		apiKey, err := secrets.Optional(secrets.Source{
			Name: "openai api key",
			Env:  ocfg.APIKeyEnv,
		})
		if err != nil {
			return nil, err
		}

		return openai.NewClient(openai.Config{
			BaseURL:    ocfg.BaseURL,
			APIKey:     apiKey,
			Model:      ocfg.Model,
			Dimension:  ocfg.Dimension,
			Timeout:    time.Duration(ocfg.TimeoutSecs) * time.Second,
			MaxRetries: ocfg.MaxRetries,
		}, logger.WithProviderFields(log, providerOpenAI, ocfg.Model, ocfg.Dimension)), nil

	default:
		return nil, fmt.Errorf("unsupported embedder type: %s", cfg.Type)
	}
}

// readDocument returns the text of a résumé file on disk.
func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	text, err := document.ExtractText(path, data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", path, matching.ErrEmptyDocument)
	}
	return text, nil
}

// redacted copies config with inline secrets masked for logging.
func redacted(config *Config) *Config {
	if config == nil || config.Embedder == nil || config.Embedder.Gemini == nil || config.Embedder.Gemini.APIKey == "" {
		return config
	}
	out := *config
	embedder := *config.Embedder
	gem := *config.Embedder.Gemini
	gem.APIKey = "***"
	embedder.Gemini = &gem
	out.Embedder = &embedder
	return &out
}
