package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/webscout/config"
	"github.com/mohammad-safakhou/webscout/internal/agent/core"
	agenttele "github.com/mohammad-safakhou/webscout/internal/agent/telemetry"
	"github.com/mohammad-safakhou/webscout/internal/batch"
	"github.com/mohammad-safakhou/webscout/internal/cache"
	"github.com/mohammad-safakhou/webscout/internal/cache/store"
	"github.com/mohammad-safakhou/webscout/internal/capability"
	"github.com/mohammad-safakhou/webscout/internal/runtime"
	srv "github.com/mohammad-safakhou/webscout/internal/server"
	"github.com/mohammad-safakhou/webscout/tools/webfetch"
)

func main() {
	var configPath string
	root := &cobra.Command{Use: "webscout", SilenceUsage: true}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	var directURL string
	query := &cobra.Command{
		Use:   "query [text]",
		Short: "Resolve a query and print the JSON result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer app.shutdown()

			q := strings.Join(args, " ")
			var result *core.Result
			if directURL != "" {
				result, err = app.agent.ProcessDirectURL(cmd.Context(), directURL, q)
			} else {
				result, err = app.agent.Process(cmd.Context(), q)
			}
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
	query.Flags().StringVar(&directURL, "url", "", "skip planning and navigate straight to this URL")

	var batchFile string
	batchCmd := &cobra.Command{
		Use:   "batch [queries...]",
		Short: "Run multiple queries sequentially with pacing",
		RunE: func(cmd *cobra.Command, args []string) error {
			queries := args
			if batchFile != "" {
				fromFile, err := readQueries(batchFile)
				if err != nil {
					return err
				}
				queries = append(queries, fromFile...)
			}
			if len(queries) == 0 {
				return fmt.Errorf("no queries given (arguments or --file)")
			}

			app, err := buildApp(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer app.shutdown()

			runner := batch.NewRunner(app.agent, app.cfg.Batch)
			report, err := runner.Run(cmd.Context(), queries)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one query per line")

	var serveAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer app.shutdown()

			if serveAddr == "" {
				serveAddr = app.cfg.Server.Address
			}
			server := srv.New(app.agent, app.cache, app.registry, app.telemetry)
			return server.Run(serveAddr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")

	cacheCmd := &cobra.Command{Use: "cache", Short: "Inspect or clear the result cache"}
	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Print cache statistics",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := config.LoadConfig(configPath)
				cacheStore, err := cache.NewStore(cfg.Cache)
				if err != nil {
					return err
				}
				return printJSON(cacheStore.Stats())
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Drop every cached result",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := config.LoadConfig(configPath)
				cacheStore, err := cache.NewStore(cfg.Cache)
				if err != nil {
					return err
				}
				if err := cacheStore.Clear(); err != nil {
					return err
				}
				fmt.Println("cache cleared")
				return nil
			},
		},
	)

	root.AddCommand(query, batchCmd, serve, cacheCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired components behind the CLI commands.
type app struct {
	cfg       *config.Config
	agent     *core.Orchestrator
	cache     store.Store
	registry  *capability.Registry
	telemetry *agenttele.Telemetry
	obs       *runtime.Observability
}

func buildApp(ctx context.Context, configPath string) (*app, error) {
	cfg := config.LoadConfig(configPath)

	obs, err := runtime.Init(ctx, cfg.Telemetry, "webscout", "1.0.0")
	if err != nil {
		return nil, fmt.Errorf("telemetry setup: %w", err)
	}

	tel := agenttele.NewTelemetry(cfg.Telemetry)

	registry, err := capability.NewRegistry(cfg.Agent.ExtractorDir)
	if err != nil {
		return nil, err
	}

	cacheStore, err := cache.NewStore(cfg.Cache)
	if err != nil {
		return nil, err
	}

	fetcher, err := webfetch.NewFetcher(webfetch.FetcherType(cfg.Fetcher.Type), webfetch.Config{
		Timeout:   cfg.Fetcher.Timeout,
		MaxChars:  cfg.Fetcher.MaxChars,
		UserAgent: cfg.Fetcher.UserAgent,
		Headless:  cfg.Fetcher.Headless,
	})
	if err != nil {
		return nil, err
	}

	llm, err := core.NewLLMProvider(cfg.LLM, tel)
	if err != nil {
		return nil, err
	}

	logger := log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	agent, err := core.NewOrchestrator(cfg, logger, tel, registry, cacheStore, fetcher, llm)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		agent:     agent,
		cache:     cacheStore,
		registry:  registry,
		telemetry: tel,
		obs:       obs,
	}, nil
}

func (a *app) shutdown() {
	a.telemetry.Shutdown()
	_ = a.obs.Close(context.Background())
}

func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	return queries, scanner.Err()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
