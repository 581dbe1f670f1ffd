package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Field keys shared across packages.
const (
	FieldProvider  = "ai_provider"
	FieldModel     = "ai_model"
	FieldCandidate = "candidate_id"
	FieldStrategy  = "strategy"
	FieldRole      = "role"
	FieldRunID     = "run_id"
)

type StringField struct {
	Key   string
	Value string
}

// StringFields turns key/value pairs into zap fields. Both sides are trimmed
// and pairs left empty are dropped so optional context stays out of entries.
func StringFields(pairs ...StringField) []zap.Field {
	out := make([]zap.Field, 0, len(pairs))
	for _, p := range pairs {
		key, value := strings.TrimSpace(p.Key), strings.TrimSpace(p.Value)
		if key == "" || value == "" {
			continue
		}
		out = append(out, zap.String(key, value))
	}
	return out
}

// WithFields returns log enriched with fields. A nil log becomes a no-op logger.
func WithFields(log *zap.Logger, fields ...zap.Field) *zap.Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if len(fields) == 0 {
		return log
	}
	return log.With(fields...)
}

// CommonFields describes the oracle provider and model behind a generator.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(log *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(log, CommonFields(provider, model)...)
}

// Candidate tags an entry with the candidate identifier.
func Candidate(id string) zap.Field {
	return zap.String(FieldCandidate, id)
}

// Strategy tags an entry with the extraction strategy name.
func Strategy(name string) zap.Field {
	return zap.String(FieldStrategy, name)
}

// JobFields returns the fields shared by every entry of one assessment run.
func JobFields(runID, role string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldRole, Value: role},
	)
}
