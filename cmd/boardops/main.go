package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/boardops/boardops/internal/ai"
	"github.com/boardops/boardops/internal/boardlog"
	"github.com/boardops/boardops/internal/config"
	"github.com/boardops/boardops/internal/db"
	"github.com/boardops/boardops/internal/door"
	"github.com/boardops/boardops/internal/notify"
	"github.com/boardops/boardops/internal/sysop"
	"github.com/boardops/boardops/internal/terminal"
	"github.com/boardops/boardops/internal/web"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "boardops",
		Short: "Multi-user bulletin board with door games and an AI SysOp",
		RunE:  run,
	}

	f := rootCmd.Flags()
	f.Int("telnet-port", 2323, "TCP port for the interactive terminal surface")
	f.Int("http-port", 8080, "HTTP port for the management API and dashboard")
	f.String("database-path", "boardops.db", "path to the SQLite database file")
	f.String("ai-model", "claude-sonnet-4-5", "Claude model used by the SysOp façade")
	f.String("ai-fallback-model", "", "optional secondary model name, reserved for future use")
	f.Int("ai-budget-ms", 5000, "AI request budget in milliseconds; stored in the config but not applied (the SysOp page race uses a fixed 5s timer)")
	f.Int("door-idle-timeout-sec", 300, "seconds a door session may sit idle before being terminated")
	f.Int("subscription-cap", notify.DefaultSubscriptionCap, "max subscriptions a single client connection may hold")
	f.Int("heartbeat-sec", 30, "seconds between broker heartbeat pings")
	f.Bool("dry-run", false, "shown in the startup banner only; persistence and other side effects still run")
	f.Bool("verbose", false, "enable debug-level logging")

	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("telnet_port", "telnet-port")
	bindFlag("http_port", "http-port")
	bindFlag("database_path", "database-path")
	bindFlag("ai_model", "ai-model")
	bindFlag("ai_fallback_model", "ai-fallback-model")
	bindFlag("ai_budget_ms", "ai-budget-ms")
	bindFlag("door_idle_timeout_sec", "door-idle-timeout-sec")
	bindFlag("subscription_cap", "subscription-cap")
	bindFlag("heartbeat_sec", "heartbeat-sec")
	bindFlag("dry_run", "dry-run")
	bindFlag("verbose", "verbose")

	// Bind BOARDOPS_* environment variables. AutomaticEnv with the prefix
	// maps BOARDOPS_HTTP_PORT -> "http_port", BOARDOPS_AI_MODEL -> "ai_model", etc.
	viper.SetEnvPrefix("BOARDOPS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := boardlog.New(os.Stdout, level)

	fmt.Printf("Board Ops %s starting\n", config.Version)
	fmt.Printf("  Telnet: :%d\n", cfg.TelnetPort)
	fmt.Printf("  HTTP:   :%d\n", cfg.HTTPPort)
	fmt.Printf("  DB:     %s\n", cfg.DatabasePath)
	fmt.Printf("  Model:  %s\n", cfg.AIModel)
	fmt.Printf("  Dry run: %t\n", cfg.DryRun)
	fmt.Println()

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close() //nolint:errcheck

	broker := notify.NewBroker(logger, cfg.SubscriptionCap)

	provider := ai.NewAnthropicProvider(cfg.AIModel)
	aiService := ai.NewService(provider, logger)

	doors := []door.Door{
		sysop.NewOracle(aiService),
	}
	doorRepo := db.NewDoorRepository(database)
	idleTimeout := time.Duration(cfg.DoorIdleTimeoutSec) * time.Second
	doorMgr := door.NewManager(doors, doorRepo, idleTimeout, logger)

	pager := sysop.NewPager(aiService)

	webServer := web.New(&cfg, web.Dependencies{
		DB:     database,
		Broker: broker,
		Doors:  doorMgr,
		Pager:  pager,
		Log:    logger,
	})
	go func() {
		if err := webServer.Start(); err != nil {
			logger.Error("web server error", "error", err)
		}
	}()

	termServer := terminal.New(&cfg, terminal.Dependencies{
		DB:     database,
		Broker: broker,
		Doors:  doorMgr,
		Pager:  pager,
		Log:    logger,
	})
	go func() {
		if err := termServer.Start(); err != nil {
			logger.Error("terminal server error", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	heartbeat := time.NewTicker(time.Duration(cfg.HeartbeatSec) * time.Second)
	defer heartbeat.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				broker.BroadcastToAuthenticated(mustHeartbeat())
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())
	cancel()

	shutdownEvent, _ := notify.NewEvent(notify.EventSystemShutdown, nil)
	broker.BroadcastToAuthenticated(shutdownEvent)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("web server shutdown", "error", err)
	}
	if err := termServer.Shutdown(); err != nil {
		logger.Warn("terminal server shutdown", "error", err)
	}

	return nil
}

// mustHeartbeat builds the standalone heartbeat lifecycle event. The
// event type is always valid, so the construction error is unreachable.
func mustHeartbeat() notify.Event {
	event, _ := notify.NewLifecycleEvent(notify.EventHeartbeat, nil)
	return event
}
