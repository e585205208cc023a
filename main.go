package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/novagestion/asesoria-server/internal/agent/graph"
	"github.com/novagestion/asesoria-server/internal/agent/graph/observers"
	logx "github.com/novagestion/asesoria-server/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "asesoria",
	Short: "NovaGestión advisory chat router",
	Long: `Routes inbound chat messages through a two level classifier to the taxpayer
calendar, the office knowledge base or a freeform chat model, and restyles
the answer for WhatsApp.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file loaded before reading the environment")
}

// app bundles what both commands need.
type app struct {
	cfg      *AppConfig
	runner   graph.Runner
	metrics  *observers.Metrics
	registry *prometheus.Registry
	redis    *redis.Client
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logx.Warn().Err(err).Msg("Closing redis client")
		}
	}
}

func bootstrap(ctx context.Context, cmd *cobra.Command) (*app, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := LoadConfig(envFile)
	if err != nil {
		return nil, err
	}
	cfg.InitLogger()

	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = observers.NewMetrics(a.registry)

	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise redis client: %w", err)
		}
		a.redis = rdb
		logx.Info().Msg("Connected to Redis successfully")
	}

	gcfg := graph.Config{
		ChatModels: cfg.ChatModels(),
		Knowledge:  cfg.Knowledge,
		Calendar:   cfg.Calendar,
		Metrics:    a.metrics,
	}
	if a.redis != nil {
		gcfg.Redis = a.redis
	}

	runner, err := graph.BuildResponseGraph(ctx, gcfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	a.runner = runner
	return a, nil
}
