package telemetry

import (
	"context"
	"time"

	"github.com/inklore/inklore/pkg/nlp"
	"github.com/inklore/inklore/pkg/types"
)

// RecordingClient wraps an oracle client and records every call to a
// Recorder.
type RecordingClient struct {
	client   nlp.Client
	recorder *Recorder
	model    string
	purpose  string
}

// NewRecordingClient wraps client so each Chat call lands in the
// ledger. purpose labels what the calls are for ("extraction",
// "query", "formatting").
func NewRecordingClient(client nlp.Client, recorder *Recorder, model, purpose string) *RecordingClient {
	return &RecordingClient{
		client:   client,
		recorder: recorder,
		model:    model,
		purpose:  purpose,
	}
}

// Chat delegates to the wrapped client and records the outcome.
func (c *RecordingClient) Chat(ctx context.Context, messages []types.Message) (*types.Response, error) {
	start := time.Now()
	resp, err := c.client.Chat(ctx, messages)

	rec := CallRecord{
		Model:      c.model,
		Purpose:    c.purpose,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if resp != nil && resp.TokensUsed != nil {
		rec.PromptTokens = resp.TokensUsed.PromptTokens
		rec.CompletionTokens = resp.TokensUsed.CompletionTokens
		rec.TotalTokens = resp.TokensUsed.TotalTokens
	}
	c.recorder.Record(rec)

	return resp, err
}

// Close closes the wrapped client. The recorder is owned by the
// caller and flushed separately.
func (c *RecordingClient) Close() error {
	return c.client.Close()
}
