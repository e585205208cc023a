package graph

import (
	"context"
	"fmt"
	"time"
	// CALENDAR_TIMEZONE must resolve on images without a system zoneinfo.
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"

	"github.com/novagestion/asesoria-server/internal/agent/graph/nodes"
	"github.com/novagestion/asesoria-server/internal/agent/graph/observers"
	"github.com/novagestion/asesoria-server/internal/agent/graph/tools"
	"github.com/novagestion/asesoria-server/internal/agent/model"
	"github.com/novagestion/asesoria-server/internal/agent/repo"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

// Config holds everything needed to compose the full graph end-to-end.
// This is a convenience layer over GraphConfig that also constructs the
// chat models and data adapters.
type Config struct {
	ChatModels nodes.ChatModelConfig
	Knowledge  model.KnowledgeConfig
	Calendar   model.CalendarConfig

	// Redis enables the calendar cache when non-nil and the TTL is positive.
	Redis   redis.Cmdable
	Metrics *observers.Metrics
}

// BuildResponseGraph wires chat models, the classifier and the data
// capabilities, builds the graph and returns a Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	cms, err := nodes.NewChatModels(ctx, cfg.ChatModels)
	if err != nil {
		return nil, err
	}

	calendar, err := newCalendarSource(cfg.Calendar, cfg.Redis)
	if err != nil {
		return nil, err
	}

	knowledgeTimeout, err := parseDuration("KNOWLEDGE_TIMEOUT", cfg.Knowledge.Timeout)
	if err != nil {
		return nil, err
	}
	if cms.Gemini == nil || cfg.Knowledge.FileSearchStore == "" {
		logx.Warn().Msg("Knowledge retrieval not configured; office questions will report it")
	}
	knowledge := tools.NewFileSearchRetriever(cms.Gemini, cfg.Knowledge.Model, cfg.Knowledge.FileSearchStore, knowledgeTimeout)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Classifier: tools.NewChatClassifier(cms.Router),
		Writer:     cms.Writer,
		Calendar:   calendar,
		Knowledge:  knowledge,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Response graph built successfully")
	return NewRunner(runnable, cfg.Metrics), nil
}

func newCalendarSource(cfg model.CalendarConfig, rdb redis.Cmdable) (model.CalendarSource, error) {
	timeout, err := parseDuration("CALENDAR_TIMEOUT", cfg.Timeout)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CALENDAR_CACHE_TTL", cfg.CacheTTL)
	if err != nil {
		return nil, err
	}
	loc := time.Local
	if cfg.Timezone != "" {
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("invalid CALENDAR_TIMEZONE %q: %w", cfg.Timezone, err)
		}
	}

	agenda := tools.NewAgendaClient(cfg.URL, timeout, tools.WithLocation(loc))
	if rdb == nil || cacheTTL <= 0 {
		return agenda, nil
	}
	logx.Info().Dur("ttl", cacheTTL).Msg("Calendar cache enabled")
	return repo.NewCachedCalendar(agenda, rdb, cacheTTL).WithClock(func() time.Time {
		return time.Now().In(loc)
	}), nil
}

func parseDuration(name, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s '%s': %w", name, v, err)
	}
	return d, nil
}
