package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	api "github.com/mind-engage/examgen/internal/api/http"
	"github.com/mind-engage/examgen/internal/audit"
	"github.com/mind-engage/examgen/internal/bank"
	"github.com/mind-engage/examgen/internal/config"
	"github.com/mind-engage/examgen/internal/db"
	"github.com/mind-engage/examgen/internal/gensvc"
	"github.com/mind-engage/examgen/internal/similarity"
	"github.com/mind-engage/examgen/internal/taxonomy"
)

func main() {
	cfg := config.FromEnv()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := bank.NewSQLStore(dbh, cfg.DBDriver)
	eventLog := audit.NewLog(dbh)
	resolver := taxonomy.NewResolver(logger)

	var gen gensvc.Service
	if cfg.GeminiAPIKey != "" {
		gen = gensvc.NewGeminiEngine(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout, logger)
	} else {
		logger.Warn("GEMINI_API_KEY unset, running with template generation only")
	}

	det := similarity.NewDetector(similarity.WithLogger(logger))
	if cfg.SimilarityThreshold > 0 {
		det = similarity.NewDetector(
			similarity.WithThreshold(cfg.SimilarityThreshold), similarity.WithLogger(logger))
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(ar chi.Router) {
		ar.Post("/assemble", api.AssembleHandler(api.AssemblerDeps{
			Store:       store,
			Gen:         gen,
			Recorder:    eventLog,
			Logger:      logger,
			Threshold:   cfg.SimilarityThreshold,
			RetryRounds: cfg.RetryRounds,
		}))
		ar.Get("/bank/items", api.ListBankItemsHandler(store))
		ar.Post("/bank/items", api.InsertBankItemsHandler(store))
		ar.Get("/bank/audit", api.BankAuditHandler(store, det))
		ar.Get("/bank/diversity", api.BankDiversityHandler(store))
		ar.Get("/coverage", api.CoverageHandler(store, resolver))
		ar.Get("/events", api.EventsHandler(eventLog))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	logger.Info("examgend listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DBDriver))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
