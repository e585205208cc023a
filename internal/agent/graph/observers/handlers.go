package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// NewAllCallbacks aggregates all observer handlers (prompt, tool, model and
// node timing) for compose.WithCallbacks.
func NewAllCallbacks(metrics *Metrics) []einocb.Handler {
	component := callbackHelper.NewHandlerHelper().
		Tool(newToolHandler()).
		ChatModel(newModelHandler(metrics)).
		Prompt(newPromptHandler()).
		Handler()

	return []einocb.Handler{component, newNodeHandler(metrics)}
}
