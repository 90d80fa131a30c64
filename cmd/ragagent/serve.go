package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ragagent/ragagent/internal/agent"
	"github.com/ragagent/ragagent/internal/agent/providers"
	"github.com/ragagent/ragagent/internal/agent/routing"
	"github.com/ragagent/ragagent/internal/config"
	"github.com/ragagent/ragagent/internal/httpapi"
	"github.com/ragagent/ragagent/internal/memory/embeddings"
	embeddingsOllama "github.com/ragagent/ragagent/internal/memory/embeddings/ollama"
	embeddingsOpenAI "github.com/ragagent/ragagent/internal/memory/embeddings/openai"
	"github.com/ragagent/ragagent/internal/observability"
	"github.com/ragagent/ragagent/internal/retention"
	"github.com/ragagent/ragagent/internal/storage"
	"github.com/ragagent/ragagent/internal/tools/calc"
	"github.com/ragagent/ragagent/internal/tools/files"
	"github.com/ragagent/ragagent/internal/tools/misc"
	"github.com/ragagent/ragagent/internal/tools/rag"
	"github.com/ragagent/ragagent/internal/vectorstore"
	"github.com/ragagent/ragagent/pkg/models"
)

func buildServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ragagent HTTP server",
		Long: `Start the ragagent HTTP server: loads configuration, connects the
conversation store, wires the model router and tool registry, starts the
retention sweep and config hot-reload watcher, and serves the streaming
agent endpoint and conversation management endpoints until a shutdown
signal arrives.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "ragagent.yaml", "Path to YAML configuration file")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := watcher.Get()

	logger := observability.NewLogger(observability.LogConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger.Info(ctx, "starting ragagent", "version", version, "commit", commit, "config", configPath)
	metrics := observability.NewMetrics()

	dbConfig := storage.DefaultCockroachConfig()
	if cfg.Database.MaxOpenConns > 0 {
		dbConfig.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		dbConfig.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		dbConfig.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
	}
	store, err := storage.NewCockroachMessageStore(cfg.Database.DSN, dbConfig)
	if err != nil {
		return fmt.Errorf("connect conversation store: %w", err)
	}
	defer store.Close()
	store.SetMetrics(metrics)

	providerMap, err := buildProviders(cfg)
	if err != nil {
		return fmt.Errorf("build providers: %w", err)
	}

	router := routing.NewRouter(routing.Config{
		Strategy:             routing.Strategy(cfg.Strategy),
		PercentageRemote:     cfg.PercentageRemote,
		BusinessTypeMap:      convertBusinessTypeMap(cfg.BusinessTypeMap),
		LongContextThreshold: cfg.ChunkSize,
		LocalModel:           cfg.LocalModel.ModelName,
		RemoteModel:          cfg.RemoteModel.ModelName,
	}, providerMap, time.Now().UnixNano())

	toolRegistry, err := buildToolRegistry(cfg, metrics)
	if err != nil {
		return fmt.Errorf("build tool registry: %w", err)
	}

	loopConfig := agent.LoopConfig{StepCap: cfg.AgentStepCap, ToolTimeout: 30 * time.Second}

	httpServer := httpapi.NewServer(httpapi.Config{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ContextWindow:   cfg.ContextWindow,
	}, httpapi.HeaderAuthenticator{}, store, router, toolRegistry, loopConfig, logger, metrics)

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := watcher.Start(signalCtx); err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}
	defer watcher.Close()

	var sweeper *retention.Sweeper
	if cfg.Retention.Enabled {
		sweeper, err = retention.New(store, retention.Config{MaxAge: cfg.Retention.MaxAge, Schedule: cfg.Retention.Cron}, logger)
		if err != nil {
			return fmt.Errorf("build retention sweeper: %w", err)
		}
		if err := sweeper.Start(); err != nil {
			return fmt.Errorf("start retention sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	if err := httpServer.Start(signalCtx); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}

	logger.Info(ctx, "ragagent started", "addr", cfg.Server.Addr)
	<-signalCtx.Done()
	logger.Info(ctx, "shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info(ctx, "ragagent stopped gracefully")
	return nil
}

func buildProviders(cfg *config.Config) (map[string]agent.LLMProvider, error) {
	providerMap := map[string]agent.LLMProvider{
		cfg.LocalModel.ModelName: providers.NewOllamaProvider(providers.OllamaConfig{
			BaseURL:      cfg.LocalModel.BaseURL,
			DefaultModel: cfg.LocalModel.ModelName,
			Timeout:      cfg.LocalModel.Timeout,
		}),
		cfg.RemoteModel.ModelName: providers.NewOpenAIProvider(providers.OpenAIConfig{
			APIKey:       cfg.RemoteModel.APIKey,
			BaseURL:      cfg.RemoteModel.BaseURL,
			DefaultModel: cfg.RemoteModel.ModelName,
			Timeout:      cfg.RemoteModel.Timeout,
		}),
	}

	if cfg.AnthropicModel.APIKey != "" {
		anthropicProvider, err := providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       cfg.AnthropicModel.APIKey,
			BaseURL:      cfg.AnthropicModel.BaseURL,
			DefaultModel: cfg.AnthropicModel.ModelName,
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		providerMap[cfg.AnthropicModel.ModelName] = anthropicProvider
	}

	return providerMap, nil
}

func convertBusinessTypeMap(raw map[string]string) map[models.BusinessType]string {
	out := make(map[models.BusinessType]string, len(raw))
	for k, v := range raw {
		out[models.BusinessType(k)] = v
	}
	return out
}

func buildToolRegistry(cfg *config.Config, metrics *observability.Metrics) (*agent.ToolRegistry, error) {
	registry := agent.NewToolRegistry()

	embedder, err := buildEmbeddingsProvider(cfg.Embeddings)
	if err != nil {
		return nil, err
	}
	vectorClient, err := vectorstore.NewQdrantClient(vectorstore.QdrantConfig{
		BaseURL:    cfg.VectorStore.BaseURL,
		Collection: cfg.VectorStore.Collection,
		APIKey:     cfg.VectorStore.APIKey,
		Timeout:    cfg.VectorStore.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("vector store client: %w", err)
	}
	vectorClient.SetMetrics(metrics)

	filesConfig := files.Config{AllowedDirectory: cfg.AllowedDirectory}

	registrations := []agent.Tool{
		rag.NewSearchTool(embedder, vectorClient, cfg.VectorMaxResults, cfg.VectorMinScore),
		files.NewReadFileTool(filesConfig),
		files.NewListDirectoryTool(filesConfig),
		files.NewSearchFilesTool(filesConfig),
		files.NewGetFileInfoTool(filesConfig),
		calc.CalculateTool{},
		calc.AmortizationTool{},
		calc.IRRTool{},
		calc.BondPriceTool{},
		calc.BondDurationTool{},
		calc.OptionPriceTool{},
		misc.CurrentTimeTool{},
		misc.WeatherTool{},
	}
	for _, tool := range registrations {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func buildEmbeddingsProvider(cfg config.EmbeddingsConfig) (embeddings.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return embeddingsOpenAI.New(embeddingsOpenAI.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model})
	default:
		return embeddingsOllama.New(embeddingsOllama.Config{BaseURL: cfg.BaseURL, Model: cfg.Model})
	}
}

func buildConfigCmd() *cobra.Command {
	var configPath string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&configPath, "config", "c", "ragagent.yaml", "Path to YAML configuration file")

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}
	cmd.AddCommand(validateCmd)
	return cmd
}
