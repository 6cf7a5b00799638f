// Package executor implements C8: running a validated CypherCandidate in a
// read-only transaction with a timeout, eagerly materialising rows up to
// the result cap.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/paladugusuresh/graphrag/internal/domain"
	"github.com/paladugusuresh/graphrag/internal/errcode"
)

// Policy bundles the limits the executor enforces.
type Policy struct {
	Timeout          time.Duration
	MaxCypherResults int
}

// Executor is C8.
type Executor struct {
	driver   neo4j.DriverWithContext
	database string
}

// New builds an Executor bound to driver.
func New(driver neo4j.DriverWithContext, database string) *Executor {
	return &Executor{driver: driver, database: database}
}

// Outcome carries the rows plus whether the underlying result set was
// truncated to the cap (§4.8 Post-conditions).
type Outcome struct {
	Rows      []domain.ResultRow
	Truncated bool
}

// Execute opens a read-only transaction with the given timeout. The
// execution-option channel (timeout) is passed to neo4j.WithTxTimeout and
// is never merged into params, keeping the two channels structurally
// distinct at the type level (§4.8, §8 invariant 7).
func (e *Executor) Execute(ctx context.Context, candidate *domain.CypherCandidate, policy Policy) (*Outcome, error) {
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: e.database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, candidate.Text, candidate.Params)
		if err != nil {
			return nil, classifyRunError(err)
		}

		var rows []domain.ResultRow
		truncated := false
		for res.Next(ctx) {
			if len(rows) >= policy.MaxCypherResults {
				truncated = true
				// Drain remaining records so the transaction closes cleanly.
				continue
			}
			record := res.Record()
			rows = append(rows, recordToRow(record))
		}
		if err := res.Err(); err != nil {
			return nil, classifyRunError(err)
		}

		return &Outcome{Rows: rows, Truncated: truncated}, nil
	}, neo4j.WithTxTimeout(policy.Timeout))
	if err != nil {
		if se, ok := err.(*errcode.StageError); ok {
			return nil, se
		}
		if isTimeout(err) {
			return nil, errcode.New("executor", errcode.QueryTimeout, err)
		}
		return nil, errcode.New("executor", errcode.UpstreamUnavailable, fmt.Errorf("execute: %w", err))
	}

	return result.(*Outcome), nil
}

func recordToRow(record *neo4j.Record) domain.ResultRow {
	row := domain.ResultRow{
		Columns: append([]string(nil), record.Keys...),
		Values:  append([]any(nil), record.Values...),
	}
	for _, v := range record.Values {
		if node, ok := v.(neo4j.Node); ok {
			row.NodeIDs = append(row.NodeIDs, fmt.Sprintf("%v", node.GetElementId()))
		}
	}
	return row
}

// classifyRunError maps a write attempt reported by the driver (belt and
// braces on top of the validator, §4.8) into WRITE_BLOCKED.
func classifyRunError(err error) error {
	if err == nil {
		return nil
	}
	if isWriteAttempt(err) {
		return errcode.New("executor", errcode.WriteBlocked, err)
	}
	return err
}

func isWriteAttempt(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Write queries cannot be executed") ||
		strings.Contains(msg, "WriteProtectionViolation") ||
		strings.Contains(msg, "read-only")
}

func isTimeout(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "TransactionTimedOut")
}
