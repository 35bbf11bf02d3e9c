package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"iznajmi-backend/internal/domain"

	crerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := defaultLogger
	SetDefault(New(&buf, level, "json"))
	t.Cleanup(func() {
		if prev != nil {
			SetDefault(prev)
		}
	})
	return &buf
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
	return rec
}

func TestRequestIDIsAttached(t *testing.T) {
	buf := capture(t, "info")
	ctx := WithRequestID(context.Background(), "req-1")

	InfoContext(ctx, "handled")
	rec := lastRecord(t, buf)
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "handled", rec["msg"])
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, "warn")
	Info("dropped")
	EnterMethod("x")
	assert.Empty(t, buf.String())

	Warn("kept")
	assert.Equal(t, "WARN", lastRecord(t, buf)["level"])
}

func TestExitMethodWithError(t *testing.T) {
	buf := capture(t, "debug")

	ExitMethodWithError("bookingService.ApproveBooking", domain.Conflictf("taken"))
	assert.Equal(t, "WARN", lastRecord(t, buf)["level"])

	ExitMethodWithError("bookingService.ApproveBooking", errors.New("connection refused"))
	rec := lastRecord(t, buf)
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "bookingService.ApproveBooking", rec["method"])
}

func TestRejectionLogsOnlyTheMessage(t *testing.T) {
	buf := capture(t, "debug")
	SetDefault(New(buf, "debug", "text"))

	err := crerrors.Wrap(domain.Conflictf("item 7 is already booked"), "approve booking 3")
	ExitMethodWithError("bookingService.ApproveBooking", err)

	out := strings.TrimSpace(buf.String())
	assert.NotContains(t, out, "\n", "one record per line")
	assert.NotContains(t, out, ".go:")
	assert.Contains(t, out, `error="approve booking 3: item 7 is already booked"`)
	assert.Contains(t, out, "level=WARN")
}
