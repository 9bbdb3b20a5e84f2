package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/openlease/lease-ledger/internal/logger"
)

func TestInitialize(t *testing.T) {
	err := logger.Initialize(logger.Config{
		Debug:           true,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "test",
		},
	})
	require.NoError(t, err)
	assert.NotNil(t, logger.Default())
}

func TestInitialize_WithSentry(t *testing.T) {
	// A syntactically valid DSN is enough; the client does not connect eagerly
	err := logger.Initialize(logger.Config{
		SentryDSN:       "https://00000000000000000000000000000000@sentry.example.com/1",
		BreadcrumbLevel: zapcore.DebugLevel,
		Tags: map[string]string{
			"service": "test",
		},
	})
	require.NoError(t, err)
	assert.NotNil(t, logger.Default())
}
