package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inklore/inklore/pkg/types"
)

func newTestRecorder(t *testing.T) (*Recorder, string) {
	t.Helper()
	dir := t.TempDir()
	rec, err := NewRecorder(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return rec, dir
}

func TestRecorderFlushWritesLedger(t *testing.T) {
	rec, dir := newTestRecorder(t)

	rec.Record(CallRecord{Model: "gpt-4o", Purpose: "extraction", TotalTokens: 512, DurationMS: 840})
	rec.Record(CallRecord{Model: "gpt-4o", Purpose: "query", TotalTokens: 120, DurationMS: 310})
	require.NoError(t, rec.Flush())

	records, err := ReadLedger(dir)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "extraction", records[0].Purpose)
	assert.Equal(t, 512, records[0].TotalTokens)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[0].Timestamp.IsZero())
}

func TestRecorderFlushEmptyBufferWritesNothing(t *testing.T) {
	rec, dir := newTestRecorder(t)

	require.NoError(t, rec.Flush())

	records, err := ReadLedger(dir)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecorderAutoFlushAtBatchSize(t *testing.T) {
	rec, dir := newTestRecorder(t)

	for i := 0; i < rec.batchSize; i++ {
		rec.Record(CallRecord{Model: "gpt-4o", Purpose: "extraction"})
	}

	records, err := ReadLedger(dir)
	require.NoError(t, err)
	assert.Len(t, records, rec.batchSize, "batch should flush without an explicit Flush call")
}

type countingClient struct {
	resp  *types.Response
	err   error
	calls int
}

func (c *countingClient) Chat(context.Context, []types.Message) (*types.Response, error) {
	c.calls++
	return c.resp, c.err
}

func (c *countingClient) Close() error { return nil }

func TestRecordingClientCapturesUsage(t *testing.T) {
	rec, dir := newTestRecorder(t)

	inner := &countingClient{resp: &types.Response{
		Content:    "ok",
		TokensUsed: &types.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}}
	client := NewRecordingClient(inner, rec, "gpt-4o", "extraction")

	resp, err := client.Chat(context.Background(), []types.Message{types.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)

	require.NoError(t, rec.Flush())
	records, err := ReadLedger(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "gpt-4o", records[0].Model)
	assert.Equal(t, "extraction", records[0].Purpose)
	assert.Equal(t, 120, records[0].TotalTokens)
	assert.Empty(t, records[0].Error)
}

func TestRecordingClientCapturesErrors(t *testing.T) {
	rec, dir := newTestRecorder(t)

	inner := &countingClient{err: errors.New("rate limited")}
	client := NewRecordingClient(inner, rec, "gpt-4o", "query")

	_, err := client.Chat(context.Background(), []types.Message{types.NewUserMessage("hi")})
	require.Error(t, err)

	require.NoError(t, rec.Flush())
	records, err := ReadLedger(dir)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rate limited", records[0].Error)
}
