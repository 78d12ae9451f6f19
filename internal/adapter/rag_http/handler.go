package rag_http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"site-rag/internal/domain"
	"site-rag/internal/usecase"
)

const defaultTopK = 3

// ReadinessCheck reports whether the vector index is reachable.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	answerUsecase usecase.AnswerQuestionUsecase
	ready         ReadinessCheck
	defaultTopK   int
	logger        *slog.Logger
}

// NewHandler creates the HTTP handler. A non-positive topK falls back to 3.
func NewHandler(answerUsecase usecase.AnswerQuestionUsecase, ready ReadinessCheck, topK int, logger *slog.Logger) *Handler {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Handler{
		answerUsecase: answerUsecase,
		ready:         ready,
		defaultTopK:   topK,
		logger:        logger,
	}
}

// AskRequest is the body of POST /ask and POST /retrieve.
type AskRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k,omitempty"`
	Detailed *bool  `json:"detailed,omitempty"`
}

type AskResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

type RetrievedContext struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	Text     string  `json:"text"`
	Distance float32 `json:"distance"`
}

type RetrieveDebug struct {
	RequestID        string   `json:"request_id"`
	SearchTerms      []string `json:"search_terms"`
	EffectiveTopK    int      `json:"effective_top_k"`
	MaxCharsPerChunk int      `json:"max_chars_per_chunk"`
	FilterApplied    bool     `json:"filter_applied"`
	FailedTerms      int      `json:"failed_terms"`
}

type RetrieveResponse struct {
	Contexts []RetrievedContext `json:"contexts"`
	Sources  []string           `json:"sources"`
	Debug    RetrieveDebug      `json:"debug"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Root is the liveness message.
// (GET /)
func (h *Handler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Website RAG API is running"})
}

// Ask answers a question from the indexed website content.
// (POST /ask)
func (h *Handler) Ask(c echo.Context) error {
	input, err := h.bindInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	output, err := h.answerUsecase.Execute(c.Request().Context(), input)
	if err != nil {
		return h.failure(c, "ask_failed", err)
	}

	result := output.Result()
	return c.JSON(http.StatusOK, AskResponse{Answer: result.Answer, Sources: result.Sources})
}

// Retrieve returns the evidence set that /ask would feed to the model.
// (POST /retrieve)
func (h *Handler) Retrieve(c echo.Context) error {
	input, err := h.bindInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	output, err := h.answerUsecase.Retrieve(c.Request().Context(), input)
	if err != nil {
		return h.failure(c, "retrieve_failed", err)
	}

	contexts := make([]RetrievedContext, 0, len(output.Contexts))
	for _, chunk := range output.Contexts {
		contexts = append(contexts, RetrievedContext{
			ID:       chunk.ID,
			URL:      chunk.URL,
			Title:    chunk.Title,
			Text:     chunk.Text,
			Distance: chunk.Distance,
		})
	}
	sources := output.Sources
	if sources == nil {
		sources = []string{}
	}

	return c.JSON(http.StatusOK, RetrieveResponse{
		Contexts: contexts,
		Sources:  sources,
		Debug: RetrieveDebug{
			RequestID:        output.Debug.RequestID,
			SearchTerms:      output.Debug.SearchTerms,
			EffectiveTopK:    output.Debug.EffectiveTopK,
			MaxCharsPerChunk: output.Debug.MaxCharsPerChunk,
			FilterApplied:    output.Debug.FilterApplied,
			FailedTerms:      output.Debug.FailedTerms,
		},
	})
}

// Healthz reports process liveness.
// (GET /healthz)
func (h *Handler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports whether the index backend answers.
// (GET /readyz)
func (h *Handler) Readyz(c echo.Context) error {
	if h.ready != nil {
		if err := h.ready(c.Request().Context()); err != nil {
			h.logger.WarnContext(c.Request().Context(), "readiness_check_failed", slog.String("error", err.Error()))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "index unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) bindInput(c echo.Context) (usecase.AnswerQuestionInput, error) {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return usecase.AnswerQuestionInput{}, errors.New("invalid request body")
	}
	if strings.TrimSpace(req.Question) == "" {
		return usecase.AnswerQuestionInput{}, errors.New("question is required")
	}

	input := usecase.AnswerQuestionInput{
		Question: req.Question,
		TopK:     h.defaultTopK,
	}
	if req.TopK != nil {
		input.TopK = *req.TopK
	}
	if req.Detailed != nil {
		input.Detailed = *req.Detailed
	}
	return input, nil
}

// failure maps usecase errors to responses. Internal details stay in the logs.
func (h *Handler) failure(c echo.Context, event string, err error) error {
	if errors.Is(err, domain.ErrInvalidInput) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	h.logger.ErrorContext(c.Request().Context(), event,
		slog.Bool("timeout", domain.IsTimeout(err)),
		slog.String("error", err.Error()))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
