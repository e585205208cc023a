package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	errx "github.com/novagestion/asesoria-server/internal/core/error"
)

type stubContent struct {
	resp      *genai.GenerateContentResponse
	err       error
	gotModel  string
	gotConfig *genai.GenerateContentConfig
	gotText   string
}

func (s *stubContent) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.gotModel = model
	s.gotConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		s.gotText = contents[0].Parts[0].Text
	}
	return s.resp, s.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestFileSearchRetrieverSearch(t *testing.T) {
	stub := &stubContent{resp: textResponse("Horario: 9:00 a 14:00")}
	r := newFileSearchRetriever(stub, "gemini-2.5-flash", "fileSearchStores/info", time.Second)

	out, err := r.Search(context.Background(), "¿Cuál es el horario?")
	require.NoError(t, err)
	assert.Equal(t, "Horario: 9:00 a 14:00", out)
	assert.Equal(t, "gemini-2.5-flash", stub.gotModel)
	assert.Equal(t, "¿Cuál es el horario?", stub.gotText)
	require.Len(t, stub.gotConfig.Tools, 1)
	assert.Equal(t, []string{"fileSearchStores/info"}, stub.gotConfig.Tools[0].FileSearch.FileSearchStoreNames)
	assert.Equal(t, float32(0), *stub.gotConfig.Temperature)
}

func TestFileSearchRetrieverSentinels(t *testing.T) {
	r := newFileSearchRetriever(&stubContent{resp: &genai.GenerateContentResponse{}}, "m", "s", time.Second)
	out, err := r.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, NotFoundSentinel, out)

	r = newFileSearchRetriever(&stubContent{resp: textResponse("  ")}, "m", "s", time.Second)
	out, err = r.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, InsufficientContextSentinel, out)
}

func TestFileSearchRetrieverNotConfigured(t *testing.T) {
	_, err := NewFileSearchRetriever(nil, "m", "s", 0).Search(context.Background(), "q")
	assert.ErrorIs(t, err, errx.ErrNotConfigured)

	_, err = newFileSearchRetriever(&stubContent{}, "m", "", 0).Search(context.Background(), "q")
	assert.ErrorIs(t, err, errx.ErrNotConfigured)
}

func TestFileSearchRetrieverUpstreamError(t *testing.T) {
	boom := errors.New("quota exceeded")
	r := newFileSearchRetriever(&stubContent{err: boom}, "m", "s", time.Second)
	_, err := r.Search(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "file_search")
}

func TestFileSearchRetrieverErrorStatus(t *testing.T) {
	apiErr := genai.APIError{Code: 500, Status: "INTERNAL", Message: "backend error"}
	r := newFileSearchRetriever(&stubContent{err: apiErr}, "m", "s", time.Second)
	_, err := r.Search(context.Background(), "q")
	assert.ErrorIs(t, err, errx.ErrUpstreamStatus)
	var got genai.APIError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 500, got.Code)

	r = newFileSearchRetriever(&stubContent{err: errors.New("dial tcp: connection refused")}, "m", "s", time.Second)
	_, err = r.Search(context.Background(), "q")
	assert.NotErrorIs(t, err, errx.ErrUpstreamStatus)
}
