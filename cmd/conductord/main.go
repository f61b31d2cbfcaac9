// Conductord is the orchestration control plane for agent-driven
// development pipelines.
//
// It routes intents to execution plans, drives them through registered
// agents one step at a time, records every run as an execution trace, and
// mines failed traces for recurring patterns worth promoting into process
// knowledge.
//
// Usage:
//
//	# Start the daemon with defaults
//	conductord
//
//	# Point at a config file
//	conductord -config /etc/conductord/config.yaml
//
//	# Configure via environment
//	CONDUCTORD_SERVER_PORT=9710 CONDUCTORD_GIT_REPO_PATH=/srv/repo conductord
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/conductord/internal/agent"
	"github.com/fyrsmithlabs/conductord/internal/config"
	"github.com/fyrsmithlabs/conductord/internal/engine"
	"github.com/fyrsmithlabs/conductord/internal/gitops"
	"github.com/fyrsmithlabs/conductord/internal/httpapi"
	"github.com/fyrsmithlabs/conductord/internal/learning"
	"github.com/fyrsmithlabs/conductord/internal/logging"
	"github.com/fyrsmithlabs/conductord/internal/router"
	"github.com/fyrsmithlabs/conductord/internal/telemetry"
	"github.com/fyrsmithlabs/conductord/internal/trace"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  conductord           Start the conductord daemon\n")
			fmt.Fprintf(os.Stderr, "  conductord version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("conductord by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires every service and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	meterShutdown, err := telemetry.SetupMeterProvider(nil, version)
	if err != nil {
		// Telemetry failures never stop the daemon; instruments fall
		// back to the no-op global provider.
		logger.Warn("metrics provider unavailable", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := meterShutdown(shutdownCtx); err != nil {
				logger.Warn("metrics provider shutdown failed", zap.Error(err))
			}
		}()
	}
	metrics := telemetry.NewMetrics(logger.Named("telemetry"))

	registry := agent.NewRegistry(logger.Named("agents"))
	for name, endpoint := range cfg.Agents.Endpoints {
		registry.RegisterInstance(agent.NewRemote(name, endpoint, cfg.Agents.Timeout(), logger.Named(name)))
	}

	var git engine.GitClient
	if cfg.Git.RepoPath != "" {
		client, err := gitops.NewClient(gitops.Config{
			RepoPath:      cfg.Git.RepoPath,
			DefaultBranch: cfg.Git.DefaultBranch,
			RemoteName:    cfg.Git.RemoteName,
			AuthorName:    cfg.Git.AuthorName,
			AuthorEmail:   cfg.Git.AuthorEmail,
		}, logger.Named("gitops"))
		if err != nil {
			return fmt.Errorf("creating git client: %w", err)
		}
		git = client
	} else {
		logger.Warn("git.repo_path not set, commit hooks will fail development steps that produce files")
	}

	traces := trace.NewStore()
	eng, err := engine.New(router.New(), registry, traces, git, metrics, logger.Named("engine"))
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	learn, err := learning.NewService(
		learning.NewDetector(logger.Named("detector")),
		learning.NewGate(),
		learning.NewProposalStore(),
		metrics,
		logger.Named("learning"),
	)
	if err != nil {
		return fmt.Errorf("creating learning service: %w", err)
	}

	server, err := httpapi.NewServer(eng, traces, learn, logger.Named("http"), httpapi.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		AnalyzeAfterRun: true,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	logger.Info("conductord started",
		zap.String("version", version),
		zap.Strings("agents", registry.Names()),
		zap.Int("port", cfg.Server.Port))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
