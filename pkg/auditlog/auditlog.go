// Package auditlog writes an append-only, zstd-compressed trail of merge
// conflicts, so an operator running concord across many files can review
// every conflict raised in a batch without re-invoking the merge.
package auditlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/concord-merge/concord/pkg/conflict"
)

// Entry is one record in the audit trail: a single file's merge outcome.
type Entry struct {
	Timestamp  time.Time                 `json:"timestamp"`
	FilePath   string                    `json:"file_path"`
	Confidence string                    `json:"confidence"`
	Conflicts  []conflict.EntityConflict `json:"conflicts,omitempty"`
	Stats      conflict.Stats            `json:"stats"`
}

// Writer appends zstd-compressed, newline-delimited JSON records to an
// open file. Each call to Append is its own independent zstd frame, so the
// log can be read record-by-record without buffering the whole file.
type Writer struct {
	file *os.File
}

// Open appends to (or creates) the audit log at path.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Writer{file: f}, nil
}

// Append writes one compressed record to the log.
func (w *Writer) Append(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit log: marshal: %w", err)
	}
	data = append(data, '\n')

	enc, err := zstd.NewWriter(w.file)
	if err != nil {
		return fmt.Errorf("audit log: zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return fmt.Errorf("audit log: write: %w", err)
	}
	return enc.Close()
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.file.Close()
}

// ReadAll decompresses and parses every record in the audit log at path.
// zstd transparently concatenates the independent frames each Append call
// wrote, so a single decode pass recovers the newline-delimited JSON stream.
func ReadAll(path string) ([]Entry, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}

	dec, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("read audit log: zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil && len(raw) == 0 {
		return nil, nil
	}

	var entries []Entry
	decoder := json.NewDecoder(bytes.NewReader(raw))
	for {
		var entry Entry
		if err := decoder.Decode(&entry); err != nil {
			break
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
