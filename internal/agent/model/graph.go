package model

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// AppState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState, so each
//     Invoke gets a fresh instance and nothing is shared across requests.
//   - Reads/writes happen only inside state handlers or compose.ProcessState,
//     which Eino serializes.
type AppState struct {
	RequestID string

	// Messages is append-only: nodes add entries, never rewrite earlier ones.
	Messages []*schema.Message

	PrimaryCategory *PrimaryCategory // set once by the primary router
	SubCategory     *SubCategory     // set once by the info router, nil on the other branch
	Handler         string           // node key of the handler that produced content
	HandlerRuns     int

	// Fallbacks lists the router nodes whose classifier failed and that
	// routed on their default label instead.
	Fallbacks []string
}

// Append adds messages to the end of the log.
func (s *AppState) Append(msgs ...*schema.Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Snapshot returns a copy of the message slice so callers can hand it to
// capabilities without exposing the backing array.
func (s *AppState) Snapshot() []*schema.Message {
	out := make([]*schema.Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// LastMessage returns the newest message, or nil for an empty log.
func (s *AppState) LastMessage() *schema.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// LastUserContent returns the content of the most recent user message.
func (s *AppState) LastUserContent() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if m := s.Messages[i]; m != nil && m.Role == schema.User {
			return m.Content
		}
	}
	return ""
}

// Route returns the labels and handler recorded so far.
func (s *AppState) Route() Route {
	r := Route{Handler: s.Handler}
	if len(s.Fallbacks) > 0 {
		r.Fallbacks = append([]string(nil), s.Fallbacks...)
	}
	if s.PrimaryCategory != nil {
		r.PrimaryCategory = *s.PrimaryCategory
	}
	if s.SubCategory != nil {
		sub := *s.SubCategory
		r.SubCategory = &sub
	}
	return r
}

// ChatRequest is the inbound payload of a single chat turn.
type ChatRequest struct {
	RequestID string `json:"-"`
	Message   string `json:"message"`
	Context   string `json:"context,omitempty"`
}

// Normalized drops a whitespace-only context. Otherwise the message and the
// context reach the conversation verbatim.
func (r ChatRequest) Normalized() ChatRequest {
	if strings.TrimSpace(r.Context) == "" {
		r.Context = ""
	}
	return r
}

// Route records the path a request took through the graph.
type Route struct {
	PrimaryCategory PrimaryCategory `json:"primary_category"`
	SubCategory     *SubCategory    `json:"sub_category,omitempty"`
	Handler         string          `json:"handler"`
	Fallbacks       []string        `json:"fallbacks,omitempty"`
}

// ChatReply is the result of one graph execution.
type ChatReply struct {
	Response string `json:"response"`
	Route    Route  `json:"route"`
}
