package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, fields ...string) *slog.Logger {
	base := slog.NewJSONHandler(buf, &slog.HandlerOptions{ReplaceAttr: renameAttr})
	return slog.New(newContextHandler("gostore", newMaskHandler(base, fields)))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestLogging_MasksSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, "password", "Code")

	log.Info("issued",
		"contact", "a@b.com",
		"code", "123456",
		"body", `{"email":"a@b.com","password":"hunter22"}`,
		slog.Group("req", slog.String("password", "x")),
	)

	line := decodeLine(t, &buf)
	assert.Equal(t, "a@b.com", line["contact"])
	assert.Equal(t, "***", line["code"])
	assert.JSONEq(t, `{"email":"a@b.com","password":"***"}`, line["body"].(string))
	assert.Equal(t, map[string]any{"password": "***"}, line["req"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Contains(t, line, "ts")
}

func TestLogging_AttachesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf)

	ctx := SetCorrelationID(context.Background(), "cid-1")
	log.InfoContext(ctx, "hello")

	line := decodeLine(t, &buf)
	assert.Equal(t, "cid-1", line["_cID"])
	assert.Equal(t, "gostore", line["service"])
}

func TestGetCorrelationID_Empty(t *testing.T) {
	assert.Equal(t, "", GetCorrelationID(context.Background()))
}
