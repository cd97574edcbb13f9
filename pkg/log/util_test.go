package log

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	now := time.Now()
	err := errors.New("boom")
	title := "Karlsplatz"

	tests := []struct {
		name  string
		input []any
		want  int
	}{
		{"empty input", []any{}, 0},
		{"string-int-bool", []any{"a", "x", "b", 123, "c", true}, 3},
		{"time type", []any{"t", now}, 1},
		{"duration", []any{"interval", 60 * time.Second}, 1},
		{"bytes", []any{"data", []byte("xyz")}, 1},
		{"error only", []any{err}, 1},
		{"multiple errors", []any{err, errors.New("again")}, 2},
		{"mixed field types", []any{"msg", "ok", zap.String("x", "y"), "num", 42}, 3},
		{"odd number of args", []any{"key1", "val1", "key2"}, 2},
		{"non-string key", []any{123, "value", true, 99}, 2},
		{"optional string", []any{"title", &title}, 1},
		{"absent optional string", []any{"title", (*string)(nil)}, 1},
		{"string slice", []any{"stations", []string{"1444", "1478"}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input...)
			assert.Len(t, fields, tt.want)

			for _, f := range fields {
				if f.Type == zapcore.SkipType {
					continue
				}
				assert.NotEmpty(t, f.Key, "field has empty key: %+v", f)
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := NewOptions()
	assert.Empty(t, opts.Validate())

	opts.Level = "loud"
	opts.Format = "xml"
	assert.Len(t, opts.Validate(), 2)
}
