// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"credit-workflow/internal/audit"
	"credit-workflow/internal/auth/pin"
	awsclients "credit-workflow/internal/common/aws"
	"credit-workflow/internal/common/camunda"
	"credit-workflow/internal/common/config"
	"credit-workflow/internal/common/database"
	"credit-workflow/internal/common/logger"
	"credit-workflow/internal/common/observability"
	"credit-workflow/internal/gateway/ai"
	"credit-workflow/internal/gateway/store"
	"credit-workflow/internal/notify"
	"credit-workflow/internal/workflow"

	aa "credit-workflow/internal/workers/credit/advance-analysis"
	rd "credit-workflow/internal/workers/credit/record-decision"
	rdp "credit-workflow/internal/workers/credit/rotate-director-pin"
	sa "credit-workflow/internal/workers/credit/submit-application"
	sya "credit-workflow/internal/workers/credit/sync-applications"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting credit worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Redis (director PIN fallback cache) ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- PostgreSQL (audit log, optional) ---
	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		recorder, err = audit.NewRecorder(pg.GetDB(), cfg.Audit.Table, log)
		if err != nil {
			zapLog.Fatal("audit recorder init failed", zap.Error(err))
		}
		zapLog.Info("PostgreSQL connected, audit log enabled", zap.String("table", cfg.Audit.Table))
	}

	// --- Gateways ---
	storeClient := store.New(store.Config{
		URL:     cfg.APIs.RemoteStore.URL,
		Timeout: millis(cfg.APIs.RemoteStore.Timeout),
	}, log, obs)

	aiClient := ai.New(ai.Config{
		BaseURL: cfg.APIs.GenAI.BaseURL,
		APIKey:  cfg.APIs.GenAI.APIKey,
		Model:   cfg.APIs.GenAI.Model,
		Timeout: millis(cfg.APIs.GenAI.Timeout),
	}, log, obs)
	if cfg.APIs.GenAI.APIKey == "" {
		zapLog.Warn("AI API key is not configured; AI operations will fail")
	}

	pinService := pin.NewService(pin.Config{
		DefaultPIN: cfg.Auth.Director.DefaultPIN,
		CacheKey:   cfg.Auth.Director.CacheKey,
		CacheTTL:   time.Duration(cfg.Auth.Director.CacheTTL) * time.Second,
	}, storeClient, rdb.GetClient(), log)
	if err := pinService.Init(ctx); err != nil {
		zapLog.Warn("director PIN cache init failed", zap.Error(err))
	}

	// --- Notifications ---
	var channels *notify.Channels
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		sesClient, snsClient, err := awsclients.NewClients(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
		if err != nil {
			zapLog.Fatal("aws clients init failed", zap.Error(err))
		}
		channels = notify.NewChannels(notify.ChannelsConfig{
			EmailEnabled:  cfg.Notifications.Email.Enabled,
			SMSEnabled:    cfg.Notifications.SMS.Enabled,
			DirectorPhone: cfg.Notifications.SMS.DirectorPhone,
		}, sesClient, snsClient, log)
	}

	dispatcher := notify.NewDispatcher(log, 2*time.Minute)

	deps := workflow.Dependencies{
		Store:      storeClient,
		AI:         aiClient,
		PIN:        pinService,
		Dispatcher: dispatcher,
		Logger:     log,
		Obs:        obs,
	}
	if recorder != nil {
		deps.Audit = recorder
	}
	if channels != nil {
		deps.Channels = channels
	}
	orchestrator := workflow.New(deps)

	if n, err := orchestrator.Refresh(ctx); err != nil {
		zapLog.Warn("initial application list load failed", zap.Error(err))
	} else {
		zapLog.Info("application list loaded", zap.Int("count", n))
	}

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	start := func(taskType string, handler camunda.JobHandler) {
		wcfg := cfg.Workers[taskType]
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		workers = append(workers, camunda.NewWorker(
			zeebe.GetClient(), taskType, wcfg.MaxJobsActive, millis(wcfg.Timeout), handler, log,
		))
	}

	sac := sa.LoadConfig()
	sac.Timeout = millis(cfg.Workers[sa.TaskType].Timeout)
	start(sa.TaskType, sa.NewHandler(sac, orchestrator, log))

	aac := aa.LoadConfig()
	aac.Timeout = millis(cfg.Workers[aa.TaskType].Timeout)
	start(aa.TaskType, aa.NewHandler(aac, orchestrator, log))

	rdc := rd.LoadConfig()
	rdc.Timeout = millis(cfg.Workers[rd.TaskType].Timeout)
	start(rd.TaskType, rd.NewHandler(rdc, orchestrator, log))

	syc := sya.LoadConfig()
	syc.Timeout = millis(cfg.Workers[sya.TaskType].Timeout)
	start(sya.TaskType, sya.NewHandler(syc, orchestrator, log))

	rpc := rdp.LoadConfig()
	rpc.Timeout = millis(cfg.Workers[rdp.TaskType].Timeout)
	start(rdp.TaskType, rdp.NewHandler(rpc, orchestrator, log))

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status, code := "ready", http.StatusOK
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			status, code = "unavailable", http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       status,
			"busy":         orchestrator.Busy(),
			"applications": len(orchestrator.Applications()),
			"time":         time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Server.Address, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	dispatcher.Wait()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
