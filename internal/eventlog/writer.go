// Package eventlog provides an append-only JSON-lines audit log of
// simulation ticks: one record per agent action within a tick, naming the
// tick, the agent that acted, and the resulting book snapshot.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/akshitanchan/marketsim/internal/domain"
)

// Record is one audit-log line: which agent acted on which tick, and the
// resulting top-of-book snapshot. It is purely observational — the book
// never reads it back, and no simulation state is reconstructed from it.
type Record struct {
	Tick     int64          `json:"tick"`
	AgentID  string         `json:"agent_id"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// Writer writes records as JSON lines to a file.
type Writer struct {
	file   *os.File
	writer *bufio.Writer
	count  uint64
}

// NewWriter creates a new audit log writer at the given path.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create event log: %w", err)
	}
	return &Writer{
		file:   f,
		writer: bufio.NewWriterSize(f, 64*1024),
	}, nil
}

// Write appends a record to the log.
func (w *Writer) Write(rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := w.writer.Write(data); err != nil {
		return err
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return err
	}
	w.count++
	return nil
}

// Close flushes and closes the log file.
func (w *Writer) Close() error {
	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// Count returns the number of records written.
func (w *Writer) Count() uint64 {
	return w.count
}

// Reader reads records from a JSON-lines audit log.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
}

// NewReader opens an audit log for reading.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 256*1024), 1024*1024)
	return &Reader{file: f, scanner: scanner}, nil
}

// Next reads the next record. Returns nil, io.EOF at end of log.
func (r *Reader) Next() (*Record, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	var rec Record
	if err := json.Unmarshal(r.scanner.Bytes(), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// ReadAll reads every record from the log.
func (r *Reader) ReadAll() ([]*Record, error) {
	var records []*Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}

// Close closes the log file.
func (r *Reader) Close() error {
	return r.file.Close()
}
