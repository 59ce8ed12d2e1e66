// Package telemetry keeps a local ledger of oracle calls as Parquet
// files, so usage and latency can be inspected offline.
package telemetry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// CallRecord is one oracle round trip.
type CallRecord struct {
	ID               string    `parquet:"id"`
	Timestamp        time.Time `parquet:"timestamp"`
	Model            string    `parquet:"model"`
	Purpose          string    `parquet:"purpose"`
	PromptTokens     int       `parquet:"prompt_tokens"`
	CompletionTokens int       `parquet:"completion_tokens"`
	TotalTokens      int       `parquet:"total_tokens"`
	DurationMS       int64     `parquet:"duration_ms"`
	Error            string    `parquet:"error"`
}

// Recorder buffers call records and writes them out in batches.
type Recorder struct {
	outputDir string
	logger    *slog.Logger

	mu        sync.Mutex
	buffer    []CallRecord
	batchSize int
}

// NewRecorder creates a recorder writing under outputDir.
func NewRecorder(outputDir string, logger *slog.Logger) (*Recorder, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Recorder{
		outputDir: outputDir,
		logger:    logger,
		batchSize: 100,
		buffer:    make([]CallRecord, 0, 100),
	}, nil
}

// Record buffers one call, flushing when the batch fills. Records
// without an ID or timestamp get them stamped here.
func (r *Recorder) Record(rec CallRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, rec)
	if len(r.buffer) >= r.batchSize {
		if err := r.flush(); err != nil {
			r.logger.Warn("telemetry flush failed", "error", err)
		}
	}
}

// Flush writes any buffered records to a new Parquet file.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flush()
}

// Close flushes remaining records.
func (r *Recorder) Close() error {
	return r.Flush()
}

// flush writes the current buffer. Caller must hold the lock.
func (r *Recorder) flush() error {
	if len(r.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("oracle_calls_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(r.outputDir, filename)

	if err := parquet.WriteFile(path, r.buffer); err != nil {
		return fmt.Errorf("failed to write telemetry parquet file: %w", err)
	}

	r.buffer = r.buffer[:0]
	return nil
}

// ReadLedger loads every record from the ledger files under dir,
// oldest file first.
func ReadLedger(dir string) ([]CallRecord, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "oracle_calls_*.parquet"))
	if err != nil {
		return nil, err
	}

	var records []CallRecord
	for _, path := range matches {
		rows, err := parquet.ReadFile[CallRecord](path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		records = append(records, rows...)
	}
	return records, nil
}
