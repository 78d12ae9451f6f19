package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"site-rag/internal/domain"
)

// ExpanderConfig tunes the fan-out of per-term retrieval.
type ExpanderConfig struct {
	// Concurrency bounds concurrent term lookups. Values below 1 mean sequential.
	Concurrency int
	// MaxMerged truncates the merged set. 0 disables the cap.
	MaxMerged int
}

// Expander widens a question into search terms and retrieves chunks for each.
type Expander struct {
	embedder Embedder
	index    domain.ChunkIndex
	rules    []domain.TopicRule
	cfg      ExpanderConfig
	logger   *slog.Logger
}

func NewExpander(embedder Embedder, index domain.ChunkIndex, rules []domain.TopicRule, cfg ExpanderConfig, logger *slog.Logger) *Expander {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Expander{
		embedder: embedder,
		index:    index,
		rules:    rules,
		cfg:      cfg,
		logger:   logger,
	}
}

// Rules returns the topic rules the expander was built with.
func (e *Expander) Rules() []domain.TopicRule {
	return e.rules
}

// ExpandAndRetrieve fills sc.SearchTerms, the per-term results and sc.Merged.
//
// Terms are looked up concurrently but merged in term order. A failing term is
// logged and skipped; an error is returned only when every term failed, joining
// the per-term errors so their kinds stay visible to errors.Is.
func (e *Expander) ExpandAndRetrieve(ctx context.Context, sc *StageContext) error {
	sc.SearchTerms = BuildSearchTerms(sc.Query, e.rules)
	sc.TriggeredRules = domain.TriggeredRules(e.rules, sc.Query)
	sc.TermResults = make([][]domain.RetrievedChunk, len(sc.SearchTerms))
	sc.TermErrors = make([]error, len(sc.SearchTerms))

	start := time.Now()
	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i, term := range sc.SearchTerms {
		g.Go(func() error {
			chunks, err := e.retrieveTerm(ctx, term, sc.TopK)
			if err != nil {
				e.logger.WarnContext(ctx, "term_retrieval_failed",
					slog.String("retrieval_id", sc.RetrievalID),
					slog.String("term", term),
					slog.String("error", err.Error()))
				sc.TermErrors[i] = err
				return nil // non-fatal
			}
			sc.TermResults[i] = chunks
			return nil
		})
	}
	_ = g.Wait()

	if failed := sc.FailedTerms(); failed == len(sc.SearchTerms) {
		return fmt.Errorf("all %d search terms failed: %w", failed, errors.Join(sc.TermErrors...))
	}

	sc.Merged = MergeFirstSeen(sc.TermResults)
	if e.cfg.MaxMerged > 0 && len(sc.Merged) > e.cfg.MaxMerged {
		sc.Merged = sc.Merged[:e.cfg.MaxMerged]
	}

	e.logger.InfoContext(ctx, "retrieval_completed",
		slog.String("retrieval_id", sc.RetrievalID),
		slog.Int("terms", len(sc.SearchTerms)),
		slog.Int("failed_terms", sc.FailedTerms()),
		slog.Int("merged", len(sc.Merged)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}

// Filter narrows sc.Merged to URLs of the triggered rules. Without a triggered
// rule the merged set passes through untouched.
func (e *Expander) Filter(sc *StageContext) {
	if len(sc.TriggeredRules) == 0 {
		sc.Filtered = sc.Merged
		sc.FilterApplied = false
		return
	}
	sc.Filtered = FilterForTopic(sc.Merged, RulesPredicate(sc.TriggeredRules))
	sc.FilterApplied = true
}

func (e *Expander) retrieveTerm(ctx context.Context, term string, topK int) ([]domain.RetrievedChunk, error) {
	vector, err := e.embedder.GetOrCompute(ctx, term)
	if err != nil {
		return nil, err
	}
	chunks, err := e.index.Query(ctx, vector, topK)
	if err != nil {
		if errors.Is(err, domain.ErrIndexQueryFailed) {
			return nil, err
		}
		return nil, domain.WrapFailure(domain.ErrIndexQueryFailed, err)
	}
	return chunks, nil
}
