package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggingMiddleware_Owner(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	svc := LoggingMiddleware(logger)(NewService(newMockReader()))

	result, err := svc.Owner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xaBCdEf0000000000000000000000000000000001", result.Owner)

	entry := decodeLogLine(t, &logBuf)
	assert.Equal(t, "Owner", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Contains(t, entry, "duration")
}

func TestLoggingMiddleware_VerifiedRemoteFailureIsWarn(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	reader := newMockReader()
	reader.verifiedErr = errors.New("execution reverted")
	svc := LoggingMiddleware(logger)(NewService(reader))

	_, err := svc.Verified(context.Background(), "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.Error(t, err)

	entry := decodeLogLine(t, &logBuf)
	assert.Equal(t, "Verified", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "remote_call", entry["kind"])
	assert.Equal(t, "verified", entry["op"])
	assert.Equal(t, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", entry["address"])
}

func TestLoggingMiddleware_VerifiedValidationIsInfo(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	svc := LoggingMiddleware(logger)(NewService(newMockReader()))

	_, err := svc.Verified(context.Background(), "bogus")
	require.Error(t, err)

	entry := decodeLogLine(t, &logBuf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "validation", entry["kind"])
}

func TestLoggingMiddleware_VerifiedRecordsResult(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	svc := LoggingMiddleware(logger)(NewService(newMockReader()))

	result, err := svc.Verified(context.Background(), "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	require.NoError(t, err)
	assert.False(t, result.Verified)

	entry := decodeLogLine(t, &logBuf)
	assert.Equal(t, false, entry["verified"])
}
