package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Msg("test message")
	assert.Contains(t, buf.String(), "test message")
}

func TestNewDefaultWriter(t *testing.T) {
	require.NotNil(t, New(nil, "info"))
	require.NotNil(t, NewStyled(nil, "info", StyleJSON))
}

func TestSubAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")

	log.Sub("webhook").With("user", "5511999990000").Info().Msg("inbound")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "webhook", line["subsystem"])
	assert.Equal(t, "5511999990000", line["user"])
	assert.Equal(t, "inbound", line["message"])
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String(), "debug and info should be filtered at warn level")

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"Warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Info().Msg("should not appear")
	log.Error().Msg("should not appear")

	assert.Empty(t, buf.String())
}
