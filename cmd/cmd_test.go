package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/internship-matcher/internal/catalog"
	"github.com/spigell/internship-matcher/internal/embedding"
	"github.com/spigell/internship-matcher/internal/matching"
	"github.com/spigell/internship-matcher/internal/skills"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	config, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return config
}

func TestDecodeConfigDefaults(t *testing.T) {
	config := defaultConfig(t)

	if config.Embedder.Type != providerTFIDF || !config.Embedder.Cache {
		t.Fatalf("unexpected embedder defaults: %+v", config.Embedder)
	}
	if config.Embedder.Gemini.Model != "gemini-embedding-001" || config.Embedder.Gemini.Dimension != 768 {
		t.Fatalf("unexpected gemini defaults: %+v", config.Embedder.Gemini)
	}
	if config.Matching.Limit != matching.DefaultLimit || config.Matching.Workers != 1 {
		t.Fatalf("unexpected matching defaults: %+v", config.Matching)
	}
	if config.Server.Address != ":8000" || !config.Server.Metrics {
		t.Fatalf("unexpected server defaults: %+v", config.Server)
	}
}

func TestDecodeConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "internship-matcher.yaml")
	content := `embedder:
  type: openai
  cache: false
  openai:
    base-url: http://localhost:11434/v1
    model: nomic-embed-text
    dimension: 768
skills:
  vocabulary: [go, kubernetes]
matching:
  limit: 3
  workers: 4
server:
  address: 127.0.0.1:9000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("read config: %v", err)
	}

	config, err := decodeConfig(v)
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}

	if config.Embedder.Type != providerOpenAI || config.Embedder.Cache {
		t.Fatalf("unexpected embedder: %+v", config.Embedder)
	}
	if config.Embedder.OpenAI.Model != "nomic-embed-text" || config.Embedder.OpenAI.TimeoutSecs != 30 {
		t.Fatalf("unexpected openai config: %+v", config.Embedder.OpenAI)
	}
	if config.Embedder.OpenAI.Dimension != 768 {
		t.Fatalf("expected openai dimension 768, got %d", config.Embedder.OpenAI.Dimension)
	}

	p, err := newProvider(context.Background(), config.Embedder, []string{"go developer"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Dimension() != 768 {
		t.Fatalf("expected provider dimension 768, got %d", p.Dimension())
	}
	if !reflect.DeepEqual(config.Skills.Vocabulary, []string{"go", "kubernetes"}) {
		t.Fatalf("unexpected vocabulary: %v", config.Skills.Vocabulary)
	}
	if config.Matching.Limit != 3 || config.Matching.Workers != 4 {
		t.Fatalf("unexpected matching config: %+v", config.Matching)
	}
	if config.Server.Address != "127.0.0.1:9000" || config.Server.MaxUploadMB != 10 {
		t.Fatalf("unexpected server config: %+v", config.Server)
	}
}

func TestNewProvider(t *testing.T) {
	corpus := catalog.Descriptions(catalog.Default())

	tests := []struct {
		name     string
		cfg      *EmbedderConfig
		wantName string
		wantErr  bool
	}{
		{name: "default is tfidf", cfg: &EmbedderConfig{}, wantName: providerTFIDF},
		{name: "tfidf with cache and mutex", cfg: &EmbedderConfig{Type: " TFIDF ", Cache: true, Serialize: true}, wantName: providerTFIDF},
		{name: "openai compatible", cfg: &EmbedderConfig{Type: providerOpenAI, OpenAI: &OpenAIConfig{APIKeyEnv: "MATCHER_TEST_UNSET_KEY"}}, wantName: providerOpenAI},
		{name: "gemini without key", cfg: &EmbedderConfig{Type: providerGemini, Gemini: &GeminiConfig{APIKeyFile: filepath.Join(t.TempDir(), "missing")}}, wantErr: true},
		{name: "unknown type", cfg: &EmbedderConfig{Type: "word2vec"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := newProvider(context.Background(), tt.cfg, corpus, zap.NewNop())
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got provider %v", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Fatalf("expected provider %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestNewProviderCacheIsOutermost(t *testing.T) {
	p, err := newProvider(context.Background(), &EmbedderConfig{Cache: true}, []string{"python developer"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*embedding.Cache); !ok {
		t.Fatalf("expected cache wrapper, got %T", p)
	}
}

func TestBuildComponents(t *testing.T) {
	config := defaultConfig(t)

	c, err := buildComponents(context.Background(), config, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.postings) != 5 || c.vocabulary.Len() != len(skills.DefaultTerms()) {
		t.Fatalf("unexpected components: %d postings, %d terms", len(c.postings), c.vocabulary.Len())
	}

	results, err := c.ranker.Rank(context.Background(), "Python, deep learning and NLP research", c.postings, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Posting.Title != "NLP Research Intern" {
		t.Fatalf("unexpected top result: %+v", results)
	}

	config.Skills.Vocabulary = []string{"go", "GO"}
	if _, err := buildComponents(context.Background(), config, zap.NewNop()); err == nil {
		t.Fatal("expected error for duplicate vocabulary terms")
	}

	config.Skills.Vocabulary = nil
	config.Catalog.File = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := buildComponents(context.Background(), config, zap.NewNop()); err == nil {
		t.Fatal("expected error for missing catalog")
	}
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()

	resume := filepath.Join(dir, "resume.txt")
	if err := os.WriteFile(resume, []byte("SQL and Python"), 0o600); err != nil {
		t.Fatalf("write resume: %v", err)
	}
	text, err := readDocument(resume)
	if err != nil || text != "SQL and Python" {
		t.Fatalf("unexpected result %q (%v)", text, err)
	}

	blank := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(blank, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write resume: %v", err)
	}
	if _, err := readDocument(blank); !errors.Is(err, matching.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}

	if _, err := readDocument(filepath.Join(dir, "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRedacted(t *testing.T) {
	config := defaultConfig(t)
	config.Embedder.Gemini.APIKey = "secret"

	masked := redacted(config)
	if masked.Embedder.Gemini.APIKey != "***" {
		t.Fatalf("expected masked key, got %q", masked.Embedder.Gemini.APIKey)
	}
	if config.Embedder.Gemini.APIKey != "secret" {
		t.Fatal("expected original config to stay untouched")
	}
}

func TestMatchDetails(t *testing.T) {
	postings := catalog.Default()
	result := &matching.MatchResult{
		Posting:         &postings[0],
		ExtractedSkills: skills.NewSkillSet("python", "sql"),
		SemanticScore:   0.5,
		SkillMatch:      0.25,
		FinalScore:      0.5,
	}

	labels := resultLabels([]*matching.MatchResult{result})
	if labels[0] != "1. Machine Learning Intern (0.500)" {
		t.Fatalf("unexpected label %q", labels[0])
	}

	missing := missingSkills(result.ExtractedSkills, postings[0].RequiredSkills)
	if !reflect.DeepEqual(missing, []string{"deep learning", "machine learning", "pandas"}) {
		t.Fatalf("unexpected missing skills %v", missing)
	}

	var buf bytes.Buffer
	writeDetails(&buf, result)
	out := buf.String()
	for _, want := range []string{"Machine Learning Intern", "matched skills: python", "missing skills: deep learning, machine learning, pandas"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	if joinOrDash(nil) != "-" {
		t.Fatal("expected dash for empty list")
	}
}
