package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldSource is the structured log field key for a job board name.
	FieldSource = "source"
	// FieldBoardURL is the structured log field key for a job board base URL.
	FieldBoardURL = "board_url"
)

// StringField is one key/value pair destined for a structured log entry.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the pairs into zap fields. Keys and values are
// trimmed; pairs with an empty side are dropped so sparse data does not
// produce empty log fields.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches the fields to the logger. A nil logger degrades to a
// no-op one so callers under test never have to guard their log statements.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// SourceFields returns the standard fields identifying a job board. baseURL
// may be empty when only the name is known.
func SourceFields(name, baseURL string) []zap.Field {
	return StringFields(
		StringField{Key: FieldSource, Value: name},
		StringField{Key: FieldBoardURL, Value: baseURL},
	)
}

// WithSource returns a logger tagged with the board's identity, so every log
// line of a per-source code path stays attributable.
func WithSource(logger *zap.Logger, name, baseURL string) *zap.Logger {
	return WithFields(logger, SourceFields(name, baseURL)...)
}
