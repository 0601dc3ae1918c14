package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New("batch", LevelInfo, &buf)

	logger.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	logger.Infof("simulating %d runs", 3)
	line := buf.String()
	assert.Contains(t, line, "INFO")
	assert.Contains(t, line, "batch: simulating 3 runs")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("batch", LevelWarn, &buf)

	assert.False(t, logger.Enabled(LevelInfo))
	logger.SetLevel(LevelTrace)
	assert.True(t, logger.Enabled(LevelInfo))
	assert.Equal(t, LevelTrace, logger.Level())

	logger.Tracef("now visible")
	assert.Contains(t, buf.String(), "TRACE")
}

func TestUnnamedLoggerOmitsPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := New("", LevelInfo, &buf)

	logger.Warnf("careful")
	assert.Contains(t, buf.String(), "WARN  careful")
	assert.NotContains(t, buf.String(), ": careful")
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Errorf("nobody hears %v", "this")
	assert.False(t, logger.Enabled(LevelError))
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]Level{
		"trace": LevelTrace,
		"DEBUG": LevelDebug,
		" info": LevelInfo,
		"Warn":  LevelWarn,
		"ERROR": LevelError,
		"off":   LevelOff,
		"none":  LevelOff,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}
