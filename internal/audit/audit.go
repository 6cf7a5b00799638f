// Package audit implements the append-only JSONL audit sink (C11): one line
// per AuditEvent, durable before the stage that produced it returns to its
// caller, totally ordered per trace_id by wall-clock insertion order.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/paladugusuresh/graphrag/internal/errcode"
)

// Outcome is the closed set of terminal outcomes an AuditEvent can record.
type Outcome string

const (
	Passed  Outcome = "passed"
	Blocked Outcome = "blocked"
	Error   Outcome = "error"
)

// Event mirrors the AuditEvent data-model entry in §3: a single structured
// record per pipeline stage transition, keyed by trace_id.
type Event struct {
	TraceID          string    `json:"trace_id"`
	AuditID          string    `json:"audit_id,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	Stage            string    `json:"stage"`
	Outcome          Outcome   `json:"outcome"`
	ReasonCode       string    `json:"reason_code,omitempty"`
	PayloadPreview   string    `json:"payload_preview,omitempty"`
	UnknownCitations []string  `json:"unknown_citations,omitempty"`
}

const previewCap = 200

// Preview truncates s to the bounded size the spec names for
// payload_preview (§6, "typically 200 chars").
func Preview(s string) string {
	if len(s) <= previewCap {
		return s
	}
	return s[:previewCap]
}

// Sink is the append-only durable writer. Writes are serialised behind a
// single mutex per the §5 "single-writer" resource rule; fsync policy is
// implementation-defined here as an fsync-per-write, favoring durability
// over throughput since the audit sink is fail-open but its writes, once
// accepted, must survive a crash before the client sees success (§6).
type Sink struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// Open creates or appends to the JSONL file at path.
func Open(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", path, err)
	}
	return &Sink{file: f, enc: json.NewEncoder(f)}, nil
}

// Record appends ev as a single JSON line. Audit is a non-security
// auxiliary and therefore fail-open (§7): a write failure is logged by the
// caller but never aborts the request.
func (s *Sink) Record(ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(ev); err != nil {
		return fmt.Errorf("audit: encode event: %w", err)
	}
	return s.file.Sync()
}

// RecordStageError is a convenience wrapper that derives Outcome and
// reason_code from a *errcode.StageError.
func (s *Sink) RecordStageError(traceID, auditID, stage string, se *errcode.StageError, preview string) error {
	outcome := Error
	if se.Code.HTTPStatus() == 403 || se.Code.HTTPStatus() == 400 {
		outcome = Blocked
	}
	return s.Record(Event{
		TraceID:        traceID,
		AuditID:        auditID,
		Stage:          stage,
		Outcome:        outcome,
		ReasonCode:     string(se.Code),
		PayloadPreview: Preview(preview),
	})
}

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
