package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dagingaa/bank-transaction-review/internal/api/handlers"
	"github.com/dagingaa/bank-transaction-review/internal/api/middleware"
	"github.com/dagingaa/bank-transaction-review/internal/assistant"
	"github.com/dagingaa/bank-transaction-review/internal/config"
	"github.com/dagingaa/bank-transaction-review/internal/ingest"
	"github.com/dagingaa/bank-transaction-review/internal/jobs"
	"github.com/dagingaa/bank-transaction-review/internal/jobs/inmemory"
	"github.com/dagingaa/bank-transaction-review/internal/localstore"
	"github.com/dagingaa/bank-transaction-review/internal/logger"
	"github.com/dagingaa/bank-transaction-review/internal/presets"
	"github.com/dagingaa/bank-transaction-review/internal/session"
	"github.com/dagingaa/bank-transaction-review/internal/ws"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", os.Getenv("BTR_CONFIG"), "Path to config file (or set BTR_CONFIG env)")
		port       = flag.String("port", "", "HTTP server port (overrides config)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	ctx := context.Background()

	// Durable key/value storage: presets and the assistant API key live here.
	storage := localstore.NewFileStore(cfg.Storage.Path, log)
	presetStore := presets.NewStore(storage, logger.WithComponent(log, "presets"))

	// The session owns the current import's transactions and assignments.
	sess := session.New(logger.WithComponent(log, "session"))

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(8, jobStore)

	hub := ws.NewHub(logger.WithComponent(log, "ws"))
	jobQueue.SetOnUpdate(hub.BroadcastJobUpdate)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	// The import job: parse, build in batches, then commit to the session.
	// A parse failure commits nothing.
	jobHandler := func(ctx context.Context, job jobs.Job) error {
		importJob, ok := job.(*jobs.ImportJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", importJob.JobID).
			Str("file_name", importJob.FileName).
			Msg("Processing import job")

		result, err := ingest.Parse(importJob.RawText, ingest.Options{
			Delimiter:    importJob.Delimiter,
			HasHeaderRow: importJob.HasHeaderRow,
		})
		if err != nil {
			sess.FailImport()
			return err
		}

		importJob.Total = len(result.Records)

		build, err := session.Build(ctx, result.Records, importJob.Mapping, cfg.Import.BatchSize,
			func(processed, total int) {
				importJob.Processed = processed
				importJob.Total = total
				_ = jobStore.SaveJob(ctx, importJob)
				hub.BroadcastJobUpdate(importJob)
			})
		if err != nil {
			sess.FailImport()
			return err
		}

		importJob.BatchID = sess.CompleteImport(build)
		presetStore.SetImportedLabels(build.Labels)

		log.Info().
			Str("job_id", importJob.JobID).
			Str("batch_id", importJob.BatchID).
			Int("transactions", len(build.Transactions)).
			Msg("Import job completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting import worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Import worker stopped with error")
		}
	}()

	// Initialize handlers
	importHandler := handlers.NewImportHandler(sess, jobQueue, cfg.Import.PreviewRows, log)
	transactionsHandler := handlers.NewTransactionsHandler(sess, presetStore, cfg.ExportDelimiter(), cfg.Export.InterestDateColumn, log)
	presetsHandler := handlers.NewPresetsHandler(presetStore, log)
	assistantHandler := handlers.NewAssistantHandler(assistant.New(cfg.Assistant.Model), storage, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/import/preview", methodHandler(http.MethodPost, importHandler.Preview))
	mux.HandleFunc("/api/import", methodHandler(http.MethodPost, importHandler.Import))
	mux.HandleFunc("/api/reset", methodHandler(http.MethodPost, importHandler.Reset))

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/categories", methodHandler(http.MethodPost, transactionsHandler.BulkAssign))

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		// PUT /api/transactions/{id}/category
		rest := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		id, ok := strings.CutSuffix(rest, "/category")
		if !ok || id == "" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		if r.Method != http.MethodPut {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		transactionsHandler.AssignCategory(w, r, id)
	})

	mux.HandleFunc("/api/summary", methodHandler(http.MethodGet, transactionsHandler.Summary))
	mux.HandleFunc("/api/export", methodHandler(http.MethodPost, transactionsHandler.Export))

	mux.HandleFunc("/api/presets", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			presetsHandler.List(w, r)
		case http.MethodPost:
			presetsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/presets/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/presets/")
		if name, ok := strings.CutSuffix(rest, "/select"); ok && name != "" {
			if r.Method != http.MethodPost {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
				return
			}
			presetsHandler.Select(w, r, name)
			return
		}
		if rest == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Preset name is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			presetsHandler.Rename(w, r, rest)
		case http.MethodDelete:
			presetsHandler.Delete(w, r, rest)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories", methodHandler(http.MethodPost, presetsHandler.AddLabels))
	mux.HandleFunc("/api/categories/", func(w http.ResponseWriter, r *http.Request) {
		label := strings.TrimPrefix(r.URL.Path, "/api/categories/")
		if label == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Category label is required")
			return
		}
		if r.Method != http.MethodDelete {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		presetsHandler.RemoveLabel(w, r, label)
	})

	mux.HandleFunc("/api/assistant", methodHandler(http.MethodPost, assistantHandler.Generate))
	mux.HandleFunc("/api/settings/api-key", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assistantHandler.GetAPIKey(w, r)
		case http.MethodPut:
			assistantHandler.SetAPIKey(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", methodHandler(http.MethodGet, jobsHandler.ListJobs))
	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/ws", hub.HandleWS)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	hub.Close()

	log.Info().Msg("Server exited")
}

func methodHandler(method string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		fn(w, r)
	}
}
