package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/strata/internal/adapters/logger"
)

func TestPrettyHandler(t *testing.T) {
	tests := []struct {
		name string
		log  func(*slog.Logger)
		want string
	}{
		{"info", func(l *slog.Logger) { l.Info("built") }, "built\n"},
		{"warn", func(l *slog.Logger) { l.Warn("slow") }, "! slow\n"},
		{"error", func(l *slog.Logger) { l.Error("failed") }, "✗ failed\n"},
		{"debug filtered", func(l *slog.Logger) { l.Debug("hidden") }, ""},
		{"attrs", func(l *slog.Logger) { l.With("target", "default").Info("built", "assets", 3) }, "built target=default assets=3\n"},
		{"group", func(l *slog.Logger) { l.WithGroup("cache").Info("stats", "hits", 3) }, "stats cache.hits=3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", "1")

			buf := &bytes.Buffer{}
			tt.log(slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
