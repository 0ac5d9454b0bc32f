// HRNexus AI assistant — entry point.
// Subcommands: serve (HTTP API), mcp (MCP server over stdio),
// migrate (apply schema migrations), version.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/api"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chat"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/dataquery"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/formatter"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/intent"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/knowledge"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/tool"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/websearch"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/config"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/eventbus"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/llm"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/sqlite"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/server"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	if len(args) == 0 {
		printHelp(out)
		return 0
	}

	switch args[0] {
	case "version", "--version":
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	case "help", "--help":
		printHelp(out)
		return 0
	case "serve":
		return runServe(args[1:], out)
	case "mcp":
		return runMCP(out)
	case "migrate":
		return runMigrate(out)
	default:
		fmt.Fprintf(out, "unknown command %q\n\n", args[0]) //nolint:errcheck
		printHelp(out)
		return 2
	}
}

// appDeps bundles the wired pipeline and its supporting services.
type appDeps struct {
	pipeline *chat.Pipeline
	registry *tool.Registry
	index    *knowledge.Index
	provider llm.LLMProvider
	bus      *eventbus.Bus
}

// buildPipeline wires the full query pipeline from configuration:
// model provider, intent classifier, the four route handlers, tool
// registry, and the knowledge index with its rebuild watcher.
func buildPipeline(ctx context.Context, cfg config.Config, log *slog.Logger) (*appDeps, error) {
	openrouter := llm.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, cfg.ChatModel, cfg.EmbedModel)
	router := llm.NewRouter(map[string]llm.LLMProvider{
		"openrouter": openrouter,
	}, cfg.LLMProvider)

	registry := tool.NewRegistry()
	if err := tool.RegisterBuiltins(registry, cfg.DataDir); err != nil {
		log.Warn("dataset registration incomplete", "dir", cfg.DataDir, "error", err)
	}

	index := knowledge.NewIndex()
	ingestor := knowledge.NewIngestor(cfg.KBDir, router, index, log)
	if err := ingestor.Rebuild(ctx); err != nil {
		// Retrieval degrades to its fallback answer until a rebuild succeeds.
		log.Warn("initial kb index build failed", "error", err)
	}
	bus := eventbus.New()
	ingestor.WatchRebuild(ctx, bus)

	fcfg, err := formatter.LoadConfig(cfg.FormatterConfigPath)
	if err != nil {
		log.Warn("formatter config not loaded, using defaults", "path", cfg.FormatterConfigPath, "error", err)
		fcfg = formatter.DefaultConfig()
	}

	handlers := chat.Handlers{
		Conversation:  chat.NewResponder(router),
		Documentation: knowledge.NewRetriever(router, router, index),
		DataQuery:     dataquery.NewEngine(router, registry, formatter.New(router, fcfg), log),
		WebSearch:     websearch.NewResponder(websearch.NewTavilyClient(cfg.TavilyBaseURL, cfg.TavilyAPIKey), router, log),
	}

	return &appDeps{
		pipeline: chat.NewPipeline(intent.NewClassifier(router), handlers, log),
		registry: registry,
		index:    index,
		provider: router,
		bus:      bus,
	}, nil
}

func runServe(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	srvCfg := server.DefaultConfig()
	fs.StringVar(&srvCfg.Host, "host", srvCfg.Host, "Listen host")
	fs.IntVar(&srvCfg.Port, "port", srvCfg.Port, "Listen port")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintln(out, "invalid serve flags") //nolint:errcheck
		return 2
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Load()

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DBPath, "error", err)
		return 1
	}
	if err := sqlite.MigrateUp(db); err != nil {
		log.Error("migration failed", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build pipeline", "error", err)
		return 1
	}

	srv := server.NewServer(db, deps.pipeline, log, srvCfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			return 1
		}
	case sig := <-sigCh:
		log.Info("received signal", "signal", sig.String())
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", "error", err)
			return 1
		}
	}
	return 0
}

func runMCP(out io.Writer) int {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		log.Error("failed to build pipeline", "error", err)
		return 1
	}

	s := api.NewMCPServer(api.MCPDeps{
		Registry: deps.registry,
		Pipeline: deps.pipeline,
		Index:    deps.index,
		Embedder: deps.provider,
		KBDir:    cfg.KBDir,
	})
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		return 1
	}
	return 0
}

func runMigrate(out io.Writer) int {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := config.Load()

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DBPath, "error", err)
		return 1
	}
	defer db.Close() //nolint:errcheck

	if err := sqlite.MigrateUp(db); err != nil {
		log.Error("migration failed", "error", err)
		return 1
	}
	fmt.Fprintln(out, "migrations applied") //nolint:errcheck
	return 0
}

func printHelp(out io.Writer) {
	helpText := `HRNexus — AI assistant for HR and organizational data

Usage:
  hrnexus <command> [options]

Commands:
  serve        Start the HTTP API server
  mcp          Start the MCP server on stdio
  migrate      Apply database schema migrations
  version      Show version information

Serve options:
  --host       Listen host (default 0.0.0.0)
  --port       Listen port (default 8080)

Examples:
  hrnexus serve --port 8080
  hrnexus mcp
  hrnexus version`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
