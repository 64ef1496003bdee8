package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/environment"
	"github.com/opsdeck/opsdeck/pkg/logger"
	"github.com/opsdeck/opsdeck/pkg/requestid"
	"github.com/opsdeck/opsdeck/pkg/tenantctx"

	"github.com/google/uuid"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json format", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatJSON))
		log.Info("hello", slog.String("k", "v"))

		line := logLine(t, &buf)
		assert.Equal(t, "hello", line["msg"])
		assert.Equal(t, "v", line["k"])
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))
		log.Info("dropped")
		assert.Zero(t, buf.Len())

		log.Warn("kept")
		assert.Positive(t, buf.Len())
	})

	t.Run("static attrs are attached", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("service", "opsdeck")),
		)
		log.Info("hello")

		assert.Equal(t, "opsdeck", logLine(t, &buf)["service"])
	})

	t.Run("environment option sets service metadata", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithEnvironment(environment.Production, "opsdeck"),
			logger.WithOutput(&buf),
		)
		log.Info("hello")

		line := logLine(t, &buf)
		assert.Equal(t, "opsdeck", line["service"])
		assert.Equal(t, "production", line["env"])
	})
}

func TestContextExtractors(t *testing.T) {
	t.Parallel()

	t.Run("request id is injected from context", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextExtractors(requestid.LoggerExtractor()),
		)

		ctx := requestid.WithContext(context.Background(), "req-7")
		log.InfoContext(ctx, "handled")

		assert.Equal(t, "req-7", logLine(t, &buf)["request_id"])
	})

	t.Run("tenant identity is injected from context", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextExtractors(tenantctx.LoggerExtractor()),
		)

		tenantID := uuid.New()
		userID := uuid.New()
		ctx := tenantctx.WithContext(context.Background(), tenantctx.Context{
			TenantID: tenantID,
			UserID:   userID,
		})
		log.InfoContext(ctx, "handled")

		line := logLine(t, &buf)
		identity, ok := line["identity"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, tenantID.String(), identity["tenant_id"])
		assert.Equal(t, userID.String(), identity["user_id"])
	})

	t.Run("no extractor output without context values", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextExtractors(requestid.LoggerExtractor(), tenantctx.LoggerExtractor()),
		)
		log.InfoContext(context.Background(), "handled")

		line := logLine(t, &buf)
		assert.NotContains(t, line, "request_id")
		assert.NotContains(t, line, "identity")
	})
}
