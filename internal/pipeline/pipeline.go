// Package pipeline wires C1-C12 into the single request state machine:
// received -> guardrail -> planned -> generated -> validated -> executed ->
// augmented -> summarised -> audited -> returned. Each stage is folded in
// sequence, grounded on the teacher's pipeline.RunPipeline stage-folding
// style in ai/rag/pipeline.go, generalized from "N retrieval stages" to
// "the fixed nine-stage question-answering state machine".
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paladugusuresh/graphrag/internal/audit"
	"github.com/paladugusuresh/graphrag/internal/config"
	"github.com/paladugusuresh/graphrag/internal/domain"
	"github.com/paladugusuresh/graphrag/internal/errcode"
	"github.com/paladugusuresh/graphrag/internal/executor"
	"github.com/paladugusuresh/graphrag/internal/guardrail"
	"github.com/paladugusuresh/graphrag/internal/planner"
	"github.com/paladugusuresh/graphrag/internal/querygen"
	"github.com/paladugusuresh/graphrag/internal/ratelimit"
	"github.com/paladugusuresh/graphrag/internal/retriever"
	"github.com/paladugusuresh/graphrag/internal/safe"
	"github.com/paladugusuresh/graphrag/internal/schema"
	"github.com/paladugusuresh/graphrag/internal/summariser"
	"github.com/paladugusuresh/graphrag/internal/validator"

	"go.uber.org/zap"
)

// Pipeline owns one instance of every stage and runs requests through them
// in order. It holds no per-request state itself (§3 Ownership rule).
type Pipeline struct {
	policy config.Policy

	catalog    *schema.Catalog
	planner    *planner.Planner
	generator  *querygen.Generator
	exec       *executor.Executor
	retriever  *retriever.Retriever
	summariser *summariser.Summariser
	auditSink  *audit.Sink
	limiter    *ratelimit.Limiter
	logger     *zap.Logger
}

// New builds a Pipeline from its already-constructed collaborators.
func New(
	policy config.Policy,
	catalog *schema.Catalog,
	pl *planner.Planner,
	gen *querygen.Generator,
	exec *executor.Executor,
	ret *retriever.Retriever,
	summ *summariser.Summariser,
	auditSink *audit.Sink,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		policy:     policy,
		catalog:    catalog,
		planner:    pl,
		generator:  gen,
		exec:       exec,
		retriever:  ret,
		summariser: summ,
		auditSink:  auditSink,
		limiter:    limiter,
		logger:     logger,
	}
}

// Response is what Ask returns on success. Its field set matches the
// Output contract (§6): {question, summary, cypher, params, rows, chunks,
// citations, verification, trace_id, audit_id}.
type Response struct {
	Question     string
	Summary      string
	Cypher       string
	Params       map[string]any
	Rows         []domain.ResultRow
	Chunks       []domain.RetrievedChunk
	Context      []domain.GraphContextNode
	Citations    []string
	Verification domain.Verification
	TraceID      string
	AuditID      string
	Truncated    bool
}

// Ask runs one question through the full nine-stage pipeline. Exactly one
// terminal audit event is recorded per call, win or lose (§5 invariant).
func (p *Pipeline) Ask(ctx context.Context, question string) (*Response, error) {
	traceID := uuid.NewString()
	auditID := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, p.policy.RequestBudget)
	defer cancel()

	resp, stageErr := p.run(ctx, traceID, auditID, question)

	if stageErr != nil {
		p.recordTerminal(traceID, auditID, stageErr, question)
		return nil, stageErr
	}

	p.auditPassed(traceID, auditID, resp)
	return resp, nil
}

// run executes the stage sequence, wrapped in safe.Run so a panic in any
// one stage degrades to a typed INTERNAL error instead of crashing the
// goroutine handling this request.
func (p *Pipeline) run(ctx context.Context, traceID, auditID, question string) (*Response, *errcode.StageError) {
	var resp *Response
	var stageErr *errcode.StageError

	err := safe.Run("pipeline", func() error {
		r, e := p.runStages(ctx, traceID, auditID, question)
		resp, stageErr = r, e
		return nil
	})
	if err != nil {
		return nil, errcode.New("pipeline", errcode.Internal, err)
	}
	return resp, stageErr
}

func (p *Pipeline) runStages(ctx context.Context, traceID, auditID, question string) (*Response, *errcode.StageError) {
	// Stage: guardrail (C3).
	decision := guardrail.Check(question)
	if !decision.Allowed {
		return nil, errcode.New("guardrail", errcode.GuardrailBlocked, fmt.Errorf("%s", decision.Reason))
	}
	sanitized := guardrail.Sanitize(question)

	// Rate limit the LLM-backed stages (C12) before doing any planning work.
	// The bucket key is a fixed, process-wide key: §8 requires the 61st call
	// within the same minute window to be denied regardless of which
	// request made the first 60, so the key must not vary per trace_id.
	if p.limiter != nil {
		if ok, degraded := p.limiter.Acquire(llmRateLimitKey, 1, time.Now()); !ok && !degraded {
			return nil, errcode.New("rate_limiter", errcode.LLMRateLimited, fmt.Errorf("llm rate limit exceeded"))
		}
	}

	// Stage: planned (C4/C5).
	plan, err := p.planner.Plan(ctx, sanitized)
	if err != nil {
		return nil, asStageError("planner", errcode.PlanFailed, err)
	}

	var allowList *schema.AllowList
	if p.catalog != nil {
		allowList = p.catalog.Current()
	}

	// Stage: generated (C6).
	candidate, err := p.generator.Generate(ctx, plan, allowList)
	if err != nil {
		return nil, asStageError("query_generator", errcode.PlanFailed, err)
	}

	// Stage: validated (C7).
	autoInjectLimit := false
	if candidate.Source == domain.SourceTemplate {
		if tpl := querygen.LookupTemplate(plan.Intent); tpl != nil {
			autoInjectLimit = tpl.AllowAutoLimit
		}
	}
	validated, err := validator.Validate(candidate, allowList, validator.Policy{
		MaxTraversalDepth: p.policy.MaxTraversalDepth,
		MaxCypherResults:  p.policy.MaxCypherResults,
		AutoInjectLimit:   autoInjectLimit,
	})
	if err != nil {
		return nil, asStageError("validator", errcode.ValidationLimit, err)
	}

	// Stage: executed (C8).
	outcome, err := p.exec.Execute(ctx, validated, executor.Policy{
		Timeout:          p.policy.Timeout,
		MaxCypherResults: p.policy.MaxCypherResults,
	})
	if err != nil {
		return nil, asStageError("executor", errcode.UpstreamUnavailable, err)
	}

	// Stage: augmented (C9). Best-effort: a retrieval failure never fails
	// the overall request, it just yields an answer with fewer citations.
	var augmented *retriever.Result
	if p.retriever != nil {
		anchors := anchorNodeIDs(outcome.Rows)
		augmented, _ = p.retriever.Augment(ctx, sanitized, anchors, p.policy.RetrieverTopK)
	}
	var chunks []domain.RetrievedChunk
	var graphCtx []domain.GraphContextNode
	if augmented != nil {
		chunks, graphCtx = augmented.Chunks, augmented.Context
	}

	// Stage: summarised (C10).
	summary, err := p.summariser.Summarise(ctx, sanitized, outcome.Rows, chunks)
	if err != nil {
		return nil, asStageError("summariser", errcode.LLMStructuredFailure, err)
	}

	return &Response{
		Question:     sanitized,
		Summary:      summary.Summary,
		Cypher:       validated.Text,
		Params:       validated.Params,
		Rows:         outcome.Rows,
		Chunks:       chunks,
		Context:      graphCtx,
		Citations:    summary.Citations,
		Verification: summary.Verification,
		TraceID:      traceID,
		AuditID:      auditID,
		Truncated:    outcome.Truncated,
	}, nil
}

// llmRateLimitKey is the single shared bucket every request draws from;
// the quota is process-wide, not per-request.
const llmRateLimitKey = "llm"

// anchorNodeIDs collects the distinct node ids executed rows surfaced, the
// seed set the retriever expands one hop from (§4.9 step 4).
func anchorNodeIDs(rows []domain.ResultRow) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, row := range rows {
		for _, id := range row.NodeIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// asStageError normalizes a plain transport error into a StageError under
// fallback, while passing an already-typed StageError through unchanged so
// its original, more specific code is preserved.
func asStageError(stage string, fallback errcode.Code, err error) *errcode.StageError {
	if se, ok := err.(*errcode.StageError); ok {
		return se
	}
	return errcode.New(stage, fallback, err)
}

func (p *Pipeline) recordTerminal(traceID, auditID string, se *errcode.StageError, question string) {
	if p.auditSink == nil {
		return
	}
	if err := p.auditSink.RecordStageError(traceID, auditID, se.Stage, se, question); err != nil && p.logger != nil {
		p.logger.Warn("audit: failed to record terminal stage error", zap.Error(err), zap.String("trace_id", traceID))
	}
}

func (p *Pipeline) auditPassed(traceID, auditID string, resp *Response) {
	if p.auditSink == nil {
		return
	}
	outcome := audit.Passed
	reason := ""
	var unknown []string
	if resp.Verification.Status == "failed" {
		reason = string(errcode.CitationUnverified)
		unknown = resp.Verification.UnknownCitations
	}
	err := p.auditSink.Record(audit.Event{
		TraceID:          traceID,
		AuditID:          auditID,
		Stage:            "audited",
		Outcome:          outcome,
		ReasonCode:       reason,
		PayloadPreview:   audit.Preview(resp.Summary),
		UnknownCitations: unknown,
	})
	if err != nil && p.logger != nil {
		p.logger.Warn("audit: failed to record terminal pass event", zap.Error(err), zap.String("trace_id", traceID))
	}
}
