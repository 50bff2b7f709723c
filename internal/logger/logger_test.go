package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", "json", &buf)

	l.Info("dropped")
	l.Warn("kept", "invoice_id", 42)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, float64(42), entry["invoice_id"])
}

func TestExternalServiceResult_LogsFailureAtError(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New("error", "text", &buf))
	t.Cleanup(func() { SetDefault(New("info", "text", &bytes.Buffer{})) })

	ExternalServiceResult("mailer", "SendInvoice", nil)
	assert.Empty(t, buf.String())

	ExternalServiceResult("mailer", "SendInvoice", errors.New("smtp down"), "invoice_id", 7)
	assert.Contains(t, buf.String(), "smtp down")
	assert.Contains(t, buf.String(), "invoice_id=7")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLevel("debug").String())
	assert.Equal(t, "WARN", parseLevel("warning").String())
	assert.Equal(t, "INFO", parseLevel("bogus").String())
}
