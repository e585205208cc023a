package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/novagestion/asesoria-server/internal/agent/model"
	errx "github.com/novagestion/asesoria-server/internal/core/error"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 16 * 1024
	maxErrSnippet = 200
)

var (
	ErrEmptyOutput      = errors.New("classifier output is empty")
	ErrMalformedOutput  = errors.New("classifier output is not a label object")
	ErrLabelOutOfSchema = errors.New("classifier label outside schema")
)

// ParseLabel extracts the schema field from a structured classifier answer.
// Accepted shapes, in order: a JSON object (optionally inside a ``` fence or
// surrounded by prose) holding schema.Field, or a bare label. The returned
// label is lower-cased and guaranteed to be one of schema.Labels.
func ParseLabel(content string, s model.LabelSchema) (label string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "label_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("label parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			label = ""
		}
	}()

	if !utf8.ValidString(content) {
		return "", fmt.Errorf("%w: invalid utf8", ErrMalformedOutput)
	}
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "label_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("classifier output truncated due to size limit")
		content = truncateRunes(content, maxContentLen)
	}

	content = stripFence(strings.TrimSpace(content))
	if content == "" {
		return "", ErrEmptyOutput
	}

	raw, ok := fieldFromObject(content, s.Field)
	if !ok {
		raw = strings.Trim(content, "\"'` .\n")
	}

	label = strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return "", fmt.Errorf("%w: %s", ErrMalformedOutput, safeSnippet(content))
	}
	if !s.Allows(label) {
		return "", fmt.Errorf("%w: %q not in %v", ErrLabelOutOfSchema, safeSnippet(label), s.Labels)
	}
	return label, nil
}

// fieldFromObject decodes the outermost {...} block and returns field as a string.
func fieldFromObject(content, field string) (string, bool) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return "", false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &m); err != nil {
		return "", false
	}
	v, ok := m[field]
	if !ok {
		return "", false
	}
	switch vv := v.(type) {
	case string:
		return vv, true
	default:
		return fmt.Sprint(vv), true
	}
}

// stripFence removes a surrounding markdown code fence such as ```json ... ```.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	return truncateRunes(s, maxErrSnippet)
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
