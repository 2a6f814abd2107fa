package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitize_RedactsSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	log.Info("provider ready", "provider", "gemini", "api_key", "sk-123", "AuthToken", "abc", "input_tokens", 42)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "gemini", fields["provider"])
	assert.Equal(t, redacted, fields["api_key"])
	assert.Equal(t, redacted, fields["AuthToken"])
	assert.EqualValues(t, 42, fields["input_tokens"])
}

func TestWith_CarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("service", "Resolver", "secret", "x")

	log.Warn("fallback used", "language", "kazakh")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "Resolver", fields["service"])
	assert.Equal(t, "kazakh", fields["language"])
	assert.Equal(t, redacted, fields["secret"])
}

func TestNew_Levels(t *testing.T) {
	l, err := New("prod", "warn")
	require.NoError(t, err)
	assert.False(t, l.Zap().Core().Enabled(zap.InfoLevel))
	assert.True(t, l.Zap().Core().Enabled(zap.WarnLevel))

	_, err = New("dev", "loud")
	assert.Error(t, err)

	Nop().Info("discarded")
}
