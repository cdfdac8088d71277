package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"herald/internal/config"
	"herald/internal/domain/notification"
	"herald/internal/infra/audit"
	"herald/internal/infra/profile"
	"herald/internal/infra/queue"
	"herald/internal/infra/store"
	"herald/internal/infra/templatestore"
	"herald/internal/infra/transport"

	firebase "firebase.google.com/go/v4"
	"github.com/hibiken/asynq"
)

// queueEnqueuer adapts the asynq client to the notification.Enqueuer interface.
// Used by the reaper to re-enqueue stale dispatches.
type queueEnqueuer struct {
	client   *asynq.Client
	maxRetry int
}

func (q *queueEnqueuer) EnqueueDispatch(logID string) error {
	return queue.EnqueueDispatch(q.client, logID, q.maxRetry)
}

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("worker configuration loaded")

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	// Template store (lazily primed on first lookup)
	templateStore := templatestore.NewFileStore(resolveTemplatesPath(cfg.Templates.Path))
	resolver := notification.NewResolver(templateStore)

	// Renderer with the global placeholder default table
	renderer := notification.NewRenderer(cfg.Templates.Defaults)

	// Channel transports
	emailTransport := transport.NewResendTransport(
		cfg.Email.APIKey,
		cfg.Email.FromAddress,
		cfg.Email.FromName,
	)
	smsTransport := transport.NewTwilioTransport(
		cfg.SMS.AccountSID,
		cfg.SMS.AuthToken,
		cfg.SMS.FromNumber,
	)

	ctx := context.Background()
	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Push.ProjectID})
	if err != nil {
		slog.Error("failed to initialize firebase app", "error", err)
		os.Exit(1)
	}
	fcmClient, err := fbApp.Messaging(ctx)
	if err != nil {
		slog.Error("failed to create fcm messaging client", "error", err)
		os.Exit(1)
	}
	pushTransport := transport.NewFCMTransport(fcmClient)

	dispatcher := notification.NewDispatcher(emailTransport, smsTransport, pushTransport)

	// Supabase stores
	logStore, err := store.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	if err != nil {
		slog.Error("failed to initialize supabase store", "error", err)
		os.Exit(1)
	}
	profileStore, err := profile.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	if err != nil {
		slog.Error("failed to initialize profile store", "error", err)
		os.Exit(1)
	}
	slog.Info("supabase stores initialized")

	// Pipeline processor
	processor := notification.NewProcessor(
		notification.NewPreferenceResolver(profileStore),
		resolver,
		renderer,
		dispatcher,
		audit.NewSlogAuditor(logger),
		notification.RenderOptions{
			KeepMissingPlaceholders: cfg.Templates.KeepMissingPlaceholders,
		},
	)

	// Dispatch worker
	dispatchWorker := notification.NewWorker(logStore, processor)

	// Asynq Client (for reaper re-enqueuing)
	asynqClient := queue.NewClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer asynqClient.Close()

	enqueuer := &queueEnqueuer{
		client:   asynqClient,
		maxRetry: cfg.Queue.MaxRetry,
	}

	// ==========================================
	// Asynq Server (task processing)
	// ==========================================

	asynqServer := queue.NewServer(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Queue.Concurrency,
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TaskTypeDispatch, func(ctx context.Context, task *asynq.Task) error {
		payload, err := notification.ParseDispatchPayload(task.Payload())
		if err != nil {
			return err
		}
		return dispatchWorker.ProcessTask(ctx, payload.LogID)
	})

	// Start the asynq worker in a goroutine
	go func() {
		slog.Info("worker starting",
			"concurrency", cfg.Queue.Concurrency,
			"redis", cfg.Redis.Address,
		)
		if err := asynqServer.Run(mux); err != nil {
			slog.Error("worker failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// ==========================================
	// Stale Dispatch Reaper
	// ==========================================

	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	defer reaperCancel()

	reaper := notification.NewReaper(logStore, enqueuer, notification.ReaperConfig{
		Interval:       time.Duration(cfg.Reaper.IntervalSec) * time.Second,
		StaleThreshold: time.Duration(cfg.Reaper.StaleThresholdSec) * time.Second,
		BatchSize:      cfg.Reaper.BatchSize,
	})

	go reaper.Run(reaperCtx)

	// ==========================================
	// Graceful Shutdown
	// ==========================================

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	reaperCancel() // Stop the reaper first
	asynqServer.Shutdown()
	slog.Info("worker exited gracefully")
}

// resolveTemplatesPath finds the template file, preferring the configured
// path when it exists.
func resolveTemplatesPath(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	// Check if running in Docker (production)
	if _, err := os.Stat("/app/templates/templates.yaml"); err == nil {
		return "/app/templates/templates.yaml"
	}

	// Development: resolve relative to the source file location
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "templates/templates.yaml"
	}

	// Navigate from cmd/worker/main.go to templates/templates.yaml
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	return filepath.Join(projectRoot, "templates", "templates.yaml")
}
