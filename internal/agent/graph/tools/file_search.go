package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	errx "github.com/novagestion/asesoria-server/internal/core/error"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

const (
	// NotFoundSentinel is returned when the knowledge base produced no candidate.
	NotFoundSentinel = "No se encontró información relevante."
	// InsufficientContextSentinel is returned when the candidate carries no text.
	InsufficientContextSentinel = "No se encontró contexto suficiente."

	DefaultKnowledgeTimeout = 30 * time.Second
)

// contentGenerator is the slice of genai.Models the retriever needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// FileSearchRetriever answers office questions with Gemini grounded on a
// File Search store.
type FileSearchRetriever struct {
	models  contentGenerator
	model   string
	store   string
	timeout time.Duration
}

// NewFileSearchRetriever accepts a nil client; Search then reports
// ErrNotConfigured instead of failing at startup.
func NewFileSearchRetriever(client *genai.Client, model, store string, timeout time.Duration) *FileSearchRetriever {
	r := &FileSearchRetriever{model: model, store: store, timeout: timeout}
	if client != nil {
		r.models = client.Models
	}
	return r
}

func newFileSearchRetriever(models contentGenerator, model, store string, timeout time.Duration) *FileSearchRetriever {
	return &FileSearchRetriever{models: models, model: model, store: store, timeout: timeout}
}

// Search implements model.KnowledgeRetriever.
func (r *FileSearchRetriever) Search(ctx context.Context, query string) (string, error) {
	if r == nil || r.models == nil || r.store == "" || r.model == "" {
		return "", fmt.Errorf("file search: %w", errx.ErrNotConfigured)
	}
	timeout := r.timeout
	if timeout <= 0 {
		timeout = DefaultKnowledgeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := r.models.GenerateContent(ctx, r.model, genai.Text(query), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
		Tools: []*genai.Tool{{
			FileSearch: &genai.FileSearch{FileSearchStoreNames: []string{r.store}},
		}},
	})
	if err != nil {
		logx.Error().Err(err).Str("store", r.store).Msg("File search request failed")
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			err = fmt.Errorf("%w %d: %w", errx.ErrUpstreamStatus, apiErr.Code, err)
		}
		return "", errx.WrapUpstream("file_search", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return NotFoundSentinel, nil
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil || len(cand.Content.Parts) == 0 || cand.Content.Parts[0] == nil {
		return InsufficientContextSentinel, nil
	}
	text := strings.TrimSpace(cand.Content.Parts[0].Text)
	if text == "" {
		return InsufficientContextSentinel, nil
	}
	return text, nil
}
