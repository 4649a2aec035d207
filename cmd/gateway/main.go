// Command gateway is the composition root: it wires config, logging,
// credentials, the upstream client, persistence, the session store,
// the models cache, the orchestrator, and the HTTP server, then waits
// for a shutdown signal. Modeled on the teacher's cmd/gateway/main.go.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/chriscoletech/qwen-gateway/internal/config"
	"github.com/chriscoletech/qwen-gateway/internal/credentials"
	"github.com/chriscoletech/qwen-gateway/internal/httpapi"
	"github.com/chriscoletech/qwen-gateway/internal/logging"
	"github.com/chriscoletech/qwen-gateway/internal/modelscache"
	"github.com/chriscoletech/qwen-gateway/internal/orchestrator"
	"github.com/chriscoletech/qwen-gateway/internal/persistence"
	"github.com/chriscoletech/qwen-gateway/internal/relay"
	"github.com/chriscoletech/qwen-gateway/internal/sessionstore"
	"github.com/chriscoletech/qwen-gateway/internal/upstream"
)

const (
	appName    = "qwen-gateway"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("%s v%s\n", appName, appVersion)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting", zap.String("name", appName), zap.String("version", appVersion))

	if err := run(cfg, log); err != nil {
		log.Fatal("fatal startup error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	creds, err := credentials.New(cfg.Upstream)
	if err != nil {
		return fmt.Errorf("init credentials: %w", err)
	}
	log.Info("credentials loaded",
		zap.String("token_preview", creds.TokenPreview()),
		zap.String("cookie_preview", creds.CookiePreview()),
	)

	upstreamClient := upstream.New(cfg.Upstream, cfg.Retry, creds, log)

	db, err := persistence.Open(cfg.Persistence)
	if err != nil {
		return fmt.Errorf("open persistence: %w", err)
	}

	sessionRepo := persistence.NewGormSessionRepository(db)
	sessionQueryRepo := persistence.NewGormSessionQueryRepository(db)
	requestRepo := persistence.NewGormRequestRepository(db)
	responseRepo := persistence.NewGormResponseRepository(db)

	sessions := sessionstore.New(sessionRepo, cfg.Session.Timeout(), log)
	models := modelscache.New(upstreamClient, cfg.Models.CacheTTL(), log)
	rel := relay.New(log)

	orch := orchestrator.New(upstreamClient, sessions, rel, models, requestRepo, responseRepo, log)

	sweeper := startSweeper(sessions, cfg.Session.SweepInterval(), log)

	server := httpapi.New(cfg.Listen.Port, httpapi.Deps{
		Orchestrator:  orch,
		Relay:         rel,
		Sessions:      sessions,
		SessionsQuery: sessionQueryRepo,
		Requests:      requestRepo,
		Responses:     responseRepo,
		Credentials:   creds,
		Logger:        log,
		ReleaseMode:   cfg.Log.Level != "debug",
	})
	server.Start()

	waitForShutdown(log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("error during http shutdown", zap.Error(err))
	}

	// Stop the sweeper before closing persistence handles so a sweep
	// tick in flight never fires against a closed DB (spec.md §4.7
	// shutdown ordering).
	sweeper.Stop()

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}

	log.Info("stopped cleanly")
	return nil
}

// startSweeper schedules the session-expiry sweep on a robfig/cron
// timer running at interval, rather than a bare time.Ticker, so the
// schedule can later grow a cron expression without changing callers.
func startSweeper(sessions *sessionstore.Store, interval time.Duration, log *zap.Logger) *cron.Cron {
	c := cron.New(cron.WithSeconds())
	spec := fmt.Sprintf("@every %s", interval)
	_, err := c.AddFunc(spec, func() {
		if _, err := sessions.Sweep(context.Background()); err != nil {
			log.Warn("session sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Warn("failed to schedule session sweeper", zap.Error(err))
	}
	c.Start()
	return c
}

func waitForShutdown(log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("received shutdown signal", zap.String("signal", sig.String()))
}

func printUsage() {
	fmt.Printf(`%s v%s

Usage:
  gateway           Start the gateway server
  gateway version   Show version
  gateway help      Show this help

Environment:
  QWENGW_*          Configuration overrides (see config.yaml)
`, appName, appVersion)
}
