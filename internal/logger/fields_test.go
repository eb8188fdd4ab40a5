package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(map[string]string{
		"  provider  ": "  Gemini  ",
		"ignored":      "   ",
		"   ":          "empty key",
	})

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "Gemini" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	empty := StringFields(nil)
	if len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	enriched := WithFields(logger, zap.String("foo", "bar"))
	enriched.Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched = WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}

	enriched.Info("another log")
}

func TestProviderFields(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		model     string
		dimension int
		expected  map[string]any
	}{
		{
			name:      "all fields",
			provider:  " gemini ",
			model:     "gemini-embedding-001",
			dimension: 768,
			expected: map[string]any{
				FieldProvider:  "gemini",
				FieldModel:     "gemini-embedding-001",
				FieldDimension: int64(768),
			},
		},
		{
			name:      "unknown dimension",
			provider:  "openai",
			model:     "nomic-embed-text",
			dimension: 0,
			expected: map[string]any{
				FieldProvider: "openai",
				FieldModel:    "nomic-embed-text",
			},
		},
		{
			name:     "nothing known",
			expected: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.InfoLevel)
			WithProviderFields(zap.New(core), tt.provider, tt.model, tt.dimension).Info("probe")

			ctx := observed.All()[0].ContextMap()
			if len(ctx) != len(tt.expected) {
				t.Fatalf("expected %d fields, got %v", len(tt.expected), ctx)
			}
			for key, want := range tt.expected {
				if ctx[key] != want {
					t.Fatalf("field %s: expected %v, got %v", key, want, ctx[key])
				}
			}
		})
	}
}

func TestWithProviderFieldsNilLogger(t *testing.T) {
	enriched := WithProviderFields(nil, "tfidf", "tfidf", 42)
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	enriched.Info("another log")
}

func TestNew(t *testing.T) {
	log, err := New(Options{JSON: true, Debug: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be enabled")
	}

	log, err = New(Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be disabled by default")
	}
}
