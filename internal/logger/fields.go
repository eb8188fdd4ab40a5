package logger

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldProvider is the structured log field key for the embedding provider name.
	FieldProvider = "embedding_provider"
	// FieldModel is the structured log field key for the embedding model identifier.
	FieldModel = "embedding_model"
	// FieldDimension is the structured log field key for the embedding vector length.
	FieldDimension = "embedding_dimension"
)

// StringFields converts key/value pairs into zap fields, trimming whitespace
// and omitting pairs with an empty key or value.
func StringFields(pairs map[string]string) []zap.Field {
	keys := make([]string, 0, len(pairs))
	for key := range pairs {
		keys = append(keys, key)
	}
	// stable field order in the encoded entry
	sort.Strings(keys)

	result := make([]zap.Field, 0, len(pairs))
	for _, rawKey := range keys {
		key := strings.TrimSpace(rawKey)
		value := strings.TrimSpace(pairs[rawKey])
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// ProviderFields describes the embedding backend behind a component.
// Empty values and a non-positive dimension are left out.
func ProviderFields(provider, model string, dimension int) []zap.Field {
	fields := StringFields(map[string]string{
		FieldProvider: provider,
		FieldModel:    model,
	})
	if dimension > 0 {
		fields = append(fields, zap.Int(FieldDimension, dimension))
	}
	return fields
}

// WithProviderFields attaches the embedding provider fields to logger.
func WithProviderFields(logger *zap.Logger, provider, model string, dimension int) *zap.Logger {
	return WithFields(logger, ProviderFields(provider, model, dimension)...)
}
