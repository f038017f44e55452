// Package pipeline orchestrates one question end to end: mode and intent
// resolution, evidence gathering, prompt assembly, the completion call
// with its single bounded retry, normalization, and intent-specific
// post-processing. Ask never returns an error and never panics through;
// every failure becomes a renderable Answer.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"regulaite/internal/answer"
	"regulaite/internal/evidence"
	"regulaite/internal/history"
	"regulaite/internal/llm"
	"regulaite/internal/normalize"
	"regulaite/internal/prompt"
	"regulaite/internal/router"
)

// FailureMarker opens the narrative of every endpoint-failure Answer.
// Tests and monitoring key off this fixed string.
const FailureMarker = "The request could not be completed."

// Config carries the per-deployment tuning the pipeline reads once per
// request. Values are immutable inputs; the pipeline holds no other
// cross-request state.
type Config struct {
	Budgets       prompt.Budgets
	MaxBriefPairs int
	DefaultKHint  int
}

// Request is one user question plus its per-request settings.
type Request struct {
	Query           string
	UserID          string
	History         []history.Turn
	ModeHint        string
	KHint           int
	EvidenceEnabled bool
	WebEnabled      bool
}

// Pipeline wires the completion client and the evidence searchers. Safe
// for concurrent use across requests.
type Pipeline struct {
	client llm.CompletionClient
	index  evidence.Searcher // nil when no document index is configured
	web    evidence.Searcher // nil when web search is disabled entirely
	cfg    Config
	logger *zap.Logger
}

// New builds a pipeline. Either searcher may be nil.
func New(client llm.CompletionClient, index, web evidence.Searcher, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Budgets = cfg.Budgets.Normalize()
	if cfg.MaxBriefPairs <= 0 {
		cfg.MaxBriefPairs = 6
	}
	if cfg.DefaultKHint <= 0 {
		cfg.DefaultKHint = 8
	}
	return &Pipeline{client: client, index: index, web: web, cfg: cfg, logger: logger}
}

// Ask runs the full orchestration for one question. It always returns a
// renderable Answer with at least one follow-up suggestion.
func (p *Pipeline) Ask(ctx context.Context, req Request) (ans answer.Answer) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic recovered", zap.Any("panic", r))
			ans = p.failureAnswer(req.Query, fmt.Sprintf("internal error: %v", r))
		}
	}()

	mode := router.ResolveAuto(router.ResolveMode(req.ModeHint), req.Query)
	intent := router.ResolveIntent(req.Query)
	brief := history.Brief(req.History, p.cfg.MaxBriefPairs)
	budget := p.cfg.Budgets.For(mode)

	k := req.KHint
	if k <= 0 {
		k = p.cfg.DefaultKHint
	}
	// Research mode implies web search regardless of the flag.
	webOn := req.WebEnabled || mode == router.ModeResearch

	indexRecords, webRecords := p.gather(ctx, req.Query, k, req.EvidenceEnabled, webOn)

	blocks := prompt.Build(mode, intent, req.EvidenceEnabled, k)
	llmReq := llm.Request{
		SystemBlocks:      blocks,
		EvidenceContext:   evidence.BuildContext(indexRecords, webRecords),
		ConversationBrief: brief,
		UserQuery:         req.Query,
		MaxOutputTokens:   budget,
	}

	raw, err := p.client.Complete(ctx, llmReq)
	if err != nil {
		p.logger.Warn("completion call failed",
			zap.String("user", req.UserID), zap.Error(err))
		return p.failureAnswer(req.Query, err.Error())
	}

	result := normalize.Normalize(raw)

	// One bounded retry with a strict-JSON directive when nothing was
	// salvageable; strict-citation queries skip it since their answer is
	// reduced to quotes anyway.
	if result.Failed() && !intent.StrictCitation {
		retryReq := llmReq
		retryReq.SystemBlocks = prompt.WithStrictJSONRetry(blocks)
		if retryRaw, retryErr := p.client.Complete(ctx, retryReq); retryErr == nil {
			if retried := normalize.Normalize(retryRaw); !retried.Failed() {
				result = retried
			}
		} else {
			p.logger.Warn("strict-JSON retry failed", zap.Error(retryErr))
		}
	}

	for _, w := range result.Warnings {
		p.logger.Debug("normalizer warning",
			zap.String("method", string(result.Method)), zap.String("warning", w))
	}

	ans = result.Answer
	if intent.StrictCitation {
		ans.RawNarrative = ReduceToCitations(ans.RawNarrative)
		ans.Summary = ""
		ans.PerSource = nil
		ans.ComparisonTable = ""
	}
	if len(ans.FollowUpSuggestions) == 0 {
		ans.FollowUpSuggestions = answer.DefaultFollowUps(req.Query)
	}
	return ans
}

// gather fans out to the configured evidence sources. Concurrency is a
// pure optimization: results are merged in a stable order (index before
// web) and the searchers already absorb their own failures.
func (p *Pipeline) gather(ctx context.Context, query string, k int, indexOn, webOn bool) ([]evidence.Record, []evidence.Record) {
	var indexRecords, webRecords []evidence.Record
	g, gctx := errgroup.WithContext(ctx)
	if indexOn && p.index != nil {
		g.Go(func() error {
			indexRecords = p.index.Search(gctx, query, k)
			return nil
		})
	}
	if webOn && p.web != nil {
		g.Go(func() error {
			webRecords = p.web.Search(gctx, query, k)
			return nil
		})
	}
	_ = g.Wait() // searchers never return errors
	return indexRecords, webRecords
}

// failureAnswer converts an endpoint failure into a renderable Answer
// with the fixed marker and default follow-ups.
func (p *Pipeline) failureAnswer(query, diagnostic string) answer.Answer {
	narrative := FailureMarker
	if diagnostic != "" {
		narrative += " (" + diagnostic + ")"
	}
	narrative += "\n\nPlease try again in a moment."
	return answer.Answer{
		RawNarrative:        narrative,
		FollowUpSuggestions: answer.DefaultFollowUps(query),
	}
}
