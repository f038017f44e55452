package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"regulaite/internal/auth"
	"regulaite/internal/config"
	"regulaite/internal/docstore"
	"regulaite/internal/embedding"
	"regulaite/internal/evidence"
	"regulaite/internal/history"
	"regulaite/internal/llm"
	"regulaite/internal/pipeline"
	"regulaite/internal/prompt"
	"regulaite/internal/server"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "regulaite",
	Short: "RegulAIte - regulatory research assistant",
	Long: `RegulAIte answers banking-regulation questions for risk and
compliance teams, grounded in IFRS, AAOIFI, the CBB Rulebook and
internal policy. It serves an HTTP API, answers one-off questions on
the command line, and ingests reference documents into its local index.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		var zcfg zap.Config
		if cfg.Logging.Format == "json" {
			zcfg = zap.NewProductionConfig()
		} else {
			zcfg = zap.NewDevelopmentConfig()
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		parsed, perr := zapcore.ParseLevel(level)
		if perr != nil {
			parsed = zapcore.InfoLevel
		}
		zcfg.Level = zap.NewAtomicLevelAt(parsed)
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the RegulAIte HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pipe, hist, cleanup, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		users, err := auth.Open(cfg.Auth.UserFile, auth.Options{
			Pepper:      cfg.Auth.Pepper,
			AllowSignup: cfg.Auth.AllowSignup,
			Logger:      logger,
		})
		if err != nil {
			return err
		}
		if err := users.Bootstrap(cfg.Auth.BootstrapUser, cfg.Auth.BootstrapPassword); err != nil {
			return err
		}

		srv := server.New(server.Options{
			Pipeline:        pipe,
			History:         hist,
			Auth:            users,
			Logger:          logger,
			DefaultMode:     cfg.Modes.Default,
			DefaultKHint:    cfg.Retrieval.KHint,
			EvidenceEnabled: cfg.Retrieval.Enabled,
			WebEnabled:      cfg.Web.Enabled,
		})

		httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Router()}
		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
			errCh <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}
		return nil
	},
}

// askCmd answers a single question and prints the markdown.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question on the command line",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pipe, _, cleanup, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		mode, _ := cmd.Flags().GetString("mode")
		web, _ := cmd.Flags().GetBool("web")
		query := strings.Join(args, " ")

		ans := pipe.Ask(ctx, pipeline.Request{
			Query:           query,
			UserID:          "cli",
			ModeHint:        mode,
			KHint:           cfg.Retrieval.KHint,
			EvidenceEnabled: cfg.Retrieval.Enabled,
			WebEnabled:      web || cfg.Web.Enabled,
		})
		fmt.Println(ans.ToMarkdown())
		if len(ans.FollowUpSuggestions) > 0 {
			fmt.Println("\nFollow-up suggestions:")
			for _, s := range ans.FollowUpSuggestions {
				fmt.Println("  - " + s)
			}
		}
		return nil
	},
}

// ingestCmd loads reference documents into the local index.
var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest reference documents into the local index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, err := buildEmbeddingEngine(ctx)
		if err != nil {
			return err
		}
		store, err := docstore.NewStore(cfg.Retrieval.DatabasePath, engine, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		source, _ := cmd.Flags().GetString("source")
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			if err := store.Ingest(ctx, path, source, string(data)); err != nil {
				return fmt.Errorf("ingesting %s: %w", path, err)
			}
			logger.Info("document ingested", zap.String("path", path))
		}
		n, err := store.Count()
		if err == nil {
			logger.Info("index ready", zap.Int("documents", n))
		}
		return nil
	},
}

// buildPipeline assembles the orchestration pipeline from configuration.
// The returned cleanup closes the stores it opened.
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, *history.Store, func(), error) {
	client, err := llm.New(llm.FactoryConfig{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.GetLLMTimeout(),
	})
	if err != nil {
		return nil, nil, nil, err
	}

	var closers []func()
	var index evidence.Searcher
	if cfg.Retrieval.Enabled {
		engine, err := buildEmbeddingEngine(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		store, err := docstore.NewStore(cfg.Retrieval.DatabasePath, engine, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, func() { _ = store.Close() })
		index = evidence.NewIndexSearcher(store, logger)
	}

	var web evidence.Searcher
	if cfg.Web.Enabled {
		web = evidence.NewWebSearcher(cfg.GetWebTimeout(), cfg.Web.UserAgent, logger)
	}

	hist, err := history.NewStore(cfg.History.DatabasePath, logger)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, nil, nil, err
	}
	closers = append(closers, func() { _ = hist.Close() })

	pipe := pipeline.New(client, index, web, pipeline.Config{
		Budgets: prompt.Budgets{
			Short:    cfg.Modes.ShortBudget,
			Long:     cfg.Modes.LongBudget,
			Research: cfg.Modes.ResearchBudget,
		},
		MaxBriefPairs: cfg.Modes.MaxBriefPairs,
		DefaultKHint:  cfg.Retrieval.KHint,
	}, logger)

	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}
	return pipe, hist, cleanup, nil
}

// buildEmbeddingEngine returns the configured engine, or nil when
// embeddings are disabled (keyword search only).
func buildEmbeddingEngine(ctx context.Context) (embedding.Engine, error) {
	switch cfg.Embedding.Provider {
	case "":
		return nil, nil
	case "gemini":
		if cfg.Embedding.APIKey == "" {
			logger.Warn("no embedding API key; falling back to keyword search")
			return nil, nil
		}
		return embedding.NewGenAIEngine(ctx, cfg.Embedding.APIKey, cfg.Embedding.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Embedding.Provider)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "regulaite.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	askCmd.Flags().String("mode", "", "answer mode (short, long, research, auto)")
	askCmd.Flags().Bool("web", false, "enable web search for this question")
	ingestCmd.Flags().String("source", "InternalPolicy", "framework label for the ingested documents")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
