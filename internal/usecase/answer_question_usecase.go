package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"site-rag/internal/domain"
	"site-rag/internal/usecase/retrieval"
)

const contextPreviewChars = 1000

var tracer = otel.Tracer("site-rag/usecase")

// AnswerQuestionInput encapsulates the parameters of an /ask request.
type AnswerQuestionInput = domain.Query

// AnswerQuestionOutput carries the answer and the evidence behind it.
type AnswerQuestionOutput struct {
	Answer        string
	Sources       []string
	Contexts      []domain.RetrievedChunk
	EmptyEvidence bool
	Debug         AnswerDebug
}

// Result returns the answer and its sources. Sources is never nil.
func (o *AnswerQuestionOutput) Result() domain.AnswerResult {
	sources := o.Sources
	if sources == nil {
		sources = []string{}
	}
	return domain.AnswerResult{Answer: o.Answer, Sources: sources}
}

// AnswerDebug surfaces metadata that aids troubleshooting.
type AnswerDebug struct {
	RequestID        string
	SearchTerms      []string
	EffectiveTopK    int
	MaxCharsPerChunk int
	FilterApplied    bool
	FailedTerms      int
	RetrievalMs      int64
	GenerationMs     int64
}

// AnswerGenerator produces the final answer from a question and its context document.
type AnswerGenerator interface {
	Generate(ctx context.Context, question, contextDoc string, detailed bool) (string, error)
}

// AnswerQuestionUsecase defines the contract for grounded answers.
type AnswerQuestionUsecase interface {
	// Execute runs the full pipeline including generation.
	Execute(ctx context.Context, input AnswerQuestionInput) (*AnswerQuestionOutput, error)
	// Retrieve runs the pipeline up to context assembly, without generation.
	Retrieve(ctx context.Context, input AnswerQuestionInput) (*AnswerQuestionOutput, error)
}

type answerQuestionUsecase struct {
	expander  *retrieval.Expander
	generator AnswerGenerator
	sizing    SizingPolicy
	logger    *slog.Logger
}

// NewAnswerQuestionUsecase wires together the components needed to answer a question.
func NewAnswerQuestionUsecase(
	expander *retrieval.Expander,
	generator AnswerGenerator,
	sizing SizingPolicy,
	logger *slog.Logger,
) AnswerQuestionUsecase {
	return &answerQuestionUsecase{
		expander:  expander,
		generator: generator,
		sizing:    sizing,
		logger:    logger,
	}
}

type preparedAnswer struct {
	out        *AnswerQuestionOutput
	question   string
	contextDoc string
}

func (u *answerQuestionUsecase) Execute(ctx context.Context, input AnswerQuestionInput) (*AnswerQuestionOutput, error) {
	ctx, span := tracer.Start(ctx, "answer_question")
	defer span.End()

	start := time.Now()
	prep, err := u.prepare(ctx, input)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	out := prep.out
	span.SetAttributes(attribute.String("rag.request.id", out.Debug.RequestID))

	if out.EmptyEvidence {
		u.logger.InfoContext(ctx, "answer_empty_evidence",
			slog.String("request_id", out.Debug.RequestID),
			slog.Int("search_terms", len(out.Debug.SearchTerms)))
		return out, nil
	}

	genStart := time.Now()
	genCtx, genSpan := tracer.Start(ctx, "generate")
	answer, err := u.generator.Generate(genCtx, prep.question, prep.contextDoc, input.Detailed)
	if err != nil {
		recordSpanError(genSpan, err)
		genSpan.End()
		recordSpanError(span, err)
		u.logger.ErrorContext(ctx, "answer_generation_failed",
			slog.String("request_id", out.Debug.RequestID),
			slog.Bool("timeout", domain.IsTimeout(err)),
			slog.String("error", err.Error()))
		return nil, err
	}
	genSpan.End()
	out.Debug.GenerationMs = time.Since(genStart).Milliseconds()

	out.Answer = answer
	out.Sources = CollectSources(out.Contexts)

	u.logger.InfoContext(ctx, "answer_completed",
		slog.String("request_id", out.Debug.RequestID),
		slog.Bool("detailed", input.Detailed),
		slog.Int("contexts", len(out.Contexts)),
		slog.Int("sources", len(out.Sources)),
		slog.Int64("retrieval_ms", out.Debug.RetrievalMs),
		slog.Int64("generation_ms", out.Debug.GenerationMs),
		slog.Int64("total_ms", time.Since(start).Milliseconds()))
	return out, nil
}

func (u *answerQuestionUsecase) Retrieve(ctx context.Context, input AnswerQuestionInput) (*AnswerQuestionOutput, error) {
	ctx, span := tracer.Start(ctx, "retrieve_context")
	defer span.End()

	prep, err := u.prepare(ctx, input)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	prep.out.Sources = CollectSources(prep.out.Contexts)
	return prep.out, nil
}

// prepare validates input, then retrieves, filters and assembles the context.
// The trimmed question is used for both retrieval and the prompt. An empty
// evidence set yields the not-found answer.
func (u *answerQuestionUsecase) prepare(ctx context.Context, input AnswerQuestionInput) (*preparedAnswer, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	effectiveTopK, maxChars := u.sizing.Effective(input.TopK, input.Detailed)
	if effectiveTopK < 1 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidInput, input.TopK)
	}
	sc := &retrieval.StageContext{
		RetrievalID: uuid.NewString(),
		Query:       question,
		TopK:        effectiveTopK,
	}

	start := time.Now()
	retrieveCtx, retrieveSpan := tracer.Start(ctx, "expand_and_retrieve", trace.WithAttributes(
		attribute.Int("rag.top_k", effectiveTopK),
		attribute.Bool("rag.detailed", input.Detailed),
	))
	err := u.expander.ExpandAndRetrieve(retrieveCtx, sc)
	if err != nil {
		recordSpanError(retrieveSpan, err)
		retrieveSpan.End()
		u.logger.ErrorContext(ctx, "retrieval_failed",
			slog.String("request_id", sc.RetrievalID),
			slog.String("error", err.Error()))
		return nil, err
	}
	retrieveSpan.SetAttributes(
		attribute.Int("rag.search_terms", len(sc.SearchTerms)),
		attribute.Int("rag.merged", len(sc.Merged)),
	)
	retrieveSpan.End()

	u.expander.Filter(sc)

	out := &AnswerQuestionOutput{
		Contexts: sc.Filtered,
		Debug: AnswerDebug{
			RequestID:        sc.RetrievalID,
			SearchTerms:      sc.SearchTerms,
			EffectiveTopK:    effectiveTopK,
			MaxCharsPerChunk: maxChars,
			FilterApplied:    sc.FilterApplied,
			FailedTerms:      sc.FailedTerms(),
		},
	}

	if len(sc.Filtered) == 0 {
		out.Answer = domain.NotFoundAnswer
		out.Sources = []string{}
		out.Contexts = []domain.RetrievedChunk{}
		out.EmptyEvidence = true
		out.Debug.RetrievalMs = time.Since(start).Milliseconds()
		return &preparedAnswer{out: out, question: question}, nil
	}

	contextDoc := BuildContext(sc.Filtered, maxChars)
	out.Debug.RetrievalMs = time.Since(start).Milliseconds()

	u.logger.DebugContext(ctx, "context_built",
		slog.String("request_id", sc.RetrievalID),
		slog.Any("search_terms", sc.SearchTerms),
		slog.Int("effective_top_k", effectiveTopK),
		slog.Int("max_chars_per_chunk", maxChars),
		slog.Bool("filter_applied", sc.FilterApplied),
		slog.Int("chunks", len(sc.Filtered)),
		slog.String("context_preview", preview(contextDoc, contextPreviewChars)))

	return &preparedAnswer{out: out, question: question, contextDoc: contextDoc}, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
