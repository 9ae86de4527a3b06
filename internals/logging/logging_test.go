package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestNew_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := New("production", "info", &buf)
	logger.Info().Str("resource", "patients").Msg("listed")

	var line map[string]interface{}
	assert.NilError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, line["message"], "listed")
	assert.Equal(t, line["resource"], "patients")
	assert.Check(t, is.Contains(line, "time"))
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := New("production", "warn", &buf)
	logger.Info().Msg("hidden")
	assert.Equal(t, buf.Len(), 0)
	assert.Equal(t, logger.GetLevel(), zerolog.WarnLevel)
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger := New("development", "chatty", &bytes.Buffer{})
	assert.Equal(t, logger.GetLevel(), zerolog.InfoLevel)

	logger = New("development", "", &bytes.Buffer{})
	assert.Equal(t, logger.GetLevel(), zerolog.InfoLevel)
}
