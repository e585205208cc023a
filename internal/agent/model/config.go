package model

// ================ Config ================

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// ChatModelSpec is the provider-neutral shape the chat model factory consumes.
type ChatModelSpec struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float32
	// ThinkingBudget caps Gemini thinking tokens; negative keeps the model default.
	ThinkingBudget int
}

// RouterModelConfig configures the model behind both classification levels.
type RouterModelConfig struct {
	Provider    string  `envconfig:"ROUTER_PROVIDER" default:"gemini"`
	Model       string  `envconfig:"ROUTER_MODEL" default:"gemini-2.5-flash-lite"`
	BaseURL     string  `envconfig:"ROUTER_BASE_URL"`
	APIKey      string  `envconfig:"ROUTER_API_KEY"`
	MaxTokens   int     `envconfig:"ROUTER_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"ROUTER_TEMPERATURE" default:"0"`

	ThinkingBudget int `envconfig:"ROUTER_THINKING_BUDGET" default:"0"`
}

func (c RouterModelConfig) Spec() ChatModelSpec {
	return ChatModelSpec(c)
}

// WriterModelConfig configures the model used by the freeform chat handler and the formatter.
type WriterModelConfig struct {
	Provider    string  `envconfig:"WRITER_PROVIDER" default:"gemini"`
	Model       string  `envconfig:"WRITER_MODEL" default:"gemini-2.5-flash"`
	BaseURL     string  `envconfig:"WRITER_BASE_URL"`
	APIKey      string  `envconfig:"WRITER_API_KEY"`
	MaxTokens   int     `envconfig:"WRITER_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"WRITER_TEMPERATURE" default:"0.2"`

	ThinkingBudget int `envconfig:"WRITER_THINKING_BUDGET" default:"-1"`
}

func (c WriterModelConfig) Spec() ChatModelSpec {
	return ChatModelSpec(c)
}

// KnowledgeConfig configures the file search retriever used by the office info handler.
type KnowledgeConfig struct {
	Model           string `envconfig:"KNOWLEDGE_MODEL" default:"gemini-2.5-flash"`
	FileSearchStore string `envconfig:"KNOWLEDGE_FILE_SEARCH_STORE"`
	Timeout         string `envconfig:"KNOWLEDGE_TIMEOUT" default:"30s"`
}

// CalendarConfig configures the taxpayer agenda source.
type CalendarConfig struct {
	URL      string `envconfig:"CALENDAR_URL" default:"https://www.nmb.es/content/getAgendaContent"`
	Timeout  string `envconfig:"CALENDAR_TIMEOUT" default:"10s"`
	CacheTTL string `envconfig:"CALENDAR_CACHE_TTL" default:"0s"`
	Timezone string `envconfig:"CALENDAR_TIMEZONE" default:"Europe/Madrid"`
}
