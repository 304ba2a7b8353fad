package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	apihttp "ozzus/agent-watch/internal/api/http"
	"ozzus/agent-watch/internal/checks"
	"ozzus/agent-watch/internal/config"
	"ozzus/agent-watch/internal/journal"
	"ozzus/agent-watch/internal/lib/logger/slogpretty"
	"ozzus/agent-watch/internal/notify"
	"ozzus/agent-watch/internal/repository"
	"ozzus/agent-watch/internal/repository/kafka"
	"ozzus/agent-watch/internal/service"
	"ozzus/agent-watch/internal/watcher"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	checkOnce := pflag.Bool("check-once", false, "run a single check cycle and exit 0 when healthy, 1 otherwise")
	configPath := pflag.String("config", "", "path to a YAML config file (default: ./config/local.yaml if present)")
	pflag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fs := afero.NewOsFs()

	fileHandler, err := journal.NewFileHandler(fs, cfg.LogPath(), slog.LevelInfo)
	if err != nil {
		log.Fatalf("Failed to open monitor log: %v", err)
	}

	// Настраиваем логгер: stdout по окружению плюс файл журнала
	log := slog.New(journal.NewFanout(setupHandler(cfg.Env, os.Stdout), fileHandler))

	log.Info("starting application",
		"env", cfg.Env,
		"agent", cfg.Agent.Name,
		"log_file", fileHandler.Path(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reports, closeReports := setupReports(cfg, log)
	defer closeReports()

	notifier := notify.NewWebhookNotifier(cfg.Alert.WebhookEnv, cfg.Alert.Message, cfg.Alert.Timeout, log)

	monitor := service.NewMonitorService(notifier, reports, log, service.Config{
		AgentID:       cfg.Agent.Name,
		Interval:      cfg.Monitor.Interval,
		AlertCooldown: cfg.Alert.Cooldown,
	})

	log.Debug("initializing checkers")
	monitor.RegisterChecker(checks.NewCredentialChecker(fs, cfg.CredentialsPath(),
		cfg.Monitor.MinAuthTokenLen, cfg.Monitor.MinCT0Len, log))
	monitor.RegisterChecker(checks.NewProcessChecker(checks.NewPSLister(cfg.Monitor.ProcessTimeout),
		cfg.Monitor.ProcessMarker, cfg.Monitor.ProcessExclude, log))
	monitor.RegisterChecker(checks.NewActivityChecker(fs, cfg.ActivityLogPaths(),
		cfg.Monitor.StaleAfter, time.Now, log))

	if *checkOnce {
		code := monitor.CheckOnce(ctx)
		closeReports()
		os.Exit(code)
	}

	if cfg.Monitor.WatchCredentials {
		w := watcher.TryWatch(ctx, cfg.CredentialsPath(), log)
		monitor.WithTrigger(w.Events)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return monitor.Start(gctx)
	})

	if cfg.Server.HealthPort != "" {
		httpServer := &nethttp.Server{
			Addr:              ":" + cfg.Server.HealthPort,
			Handler:           apihttp.NewRouter(apihttp.NewHealthController(monitor, cfg.Agent.Name)),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			log.Info("starting health server", "port", cfg.Server.HealthPort)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
				return err
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("monitor exited with error", "error", err)
		closeReports()
		os.Exit(1)
	}

	log.Info("monitor stopped gracefully")
}

func setupHandler(env string, out io.Writer) slog.Handler {
	switch env {
	case envDev:
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	case envProd:
		return slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return setupPrettyHandler(out)
	}
}

func setupPrettyHandler(out io.Writer) slog.Handler {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	return opts.NewPrettyHandler(out)
}

// setupReports returns the Kafka report sink when brokers are configured. The
// returned close func is safe to call more than once.
func setupReports(cfg *config.Config, log *slog.Logger) (repository.ReportRepository, func()) {
	if len(cfg.Kafka.Brokers) == 0 {
		return repository.NopReportRepository{}, func() {}
	}

	log.Info("initializing Kafka report sink",
		"brokers", cfg.Kafka.Brokers,
		"topic", cfg.Kafka.Topic,
	)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)

	closed := false
	return repository.NewKafkaReportRepository(producer, log), func() {
		if closed {
			return
		}
		closed = true
		if err := producer.Close(); err != nil {
			log.Warn("failed to close Kafka producer", "error", err)
		}
	}
}
