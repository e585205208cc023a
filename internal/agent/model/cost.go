package model

import (
	"context"
	"sync"
)

// Pricing defines USD cost per 1M tokens for input/output.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// defaultPricing provides hardcoded USD pricing per 1M tokens (text tokens).
var defaultPricing = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
	"gemini-2.5-pro":        {InputPerM: 1.25, OutputPerM: 10.00},
	"gpt-4o-mini":           {InputPerM: 0.15, OutputPerM: 0.60},
	"gpt-4.1-mini":          {InputPerM: 0.40, OutputPerM: 1.60},
}

// ResolvePricing returns hardcoded pricing for a model; unknown models cost zero.
func ResolvePricing(model string) Pricing {
	return defaultPricing[model]
}

// ComputeCost converts token usage to USD cost using per-1M Pricing.
func ComputeCost(promptTokens, completionTokens int, p Pricing) (inputCost, outputCost, total float64) {
	inputCost = p.InputPerM * float64(promptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(completionTokens) / 1_000_000.0
	total = inputCost + outputCost
	return
}

// UsageTally accumulates model usage for one request. Model callbacks may
// fire from different goroutines, hence the mutex.
type UsageTally struct {
	mu               sync.Mutex
	Calls            int
	PromptTokens     int
	CompletionTokens int
	TotalCostUSD     float64
}

func (t *UsageTally) Add(promptTokens, completionTokens int, cost float64) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls++
	t.PromptTokens += promptTokens
	t.CompletionTokens += completionTokens
	t.TotalCostUSD += cost
}

// Totals returns a consistent copy of the counters.
func (t *UsageTally) Totals() (calls, promptTokens, completionTokens int, costUSD float64) {
	if t == nil {
		return 0, 0, 0, 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Calls, t.PromptTokens, t.CompletionTokens, t.TotalCostUSD
}

type usageTallyKey struct{}

// WithUsageTally attaches t to ctx so model callbacks can account usage per request.
func WithUsageTally(ctx context.Context, t *UsageTally) context.Context {
	return context.WithValue(ctx, usageTallyKey{}, t)
}

// UsageTallyFrom returns the tally attached to ctx, or nil.
func UsageTallyFrom(ctx context.Context) *UsageTally {
	t, _ := ctx.Value(usageTallyKey{}).(*UsageTally)
	return t
}
