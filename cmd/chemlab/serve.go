package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/chemlab/internal/api/http"
	"github.com/mind-engage/chemlab/internal/config"
	"github.com/mind-engage/chemlab/internal/db"
	"github.com/mind-engage/chemlab/internal/quizsession"
	"github.com/mind-engage/chemlab/internal/records"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("config", "", "YAML config file (overrides CONFIG_FILE)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cat, err := loadCatalog(cmd, cfg.FixturesFile)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Records ---
	store, dbh, err := openRecords(ctx, cfg)
	if err != nil {
		return fmt.Errorf("db open failed: %w", err)
	}
	if dbh != nil {
		defer dbh.Close()
	}

	sessions := quizsession.NewManager(cfg.SessionSecret, cat, store, quizsession.WithTimeLimit(cfg.QuizTimeLimit))
	defer sessions.Close()

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(ar chi.Router) {
		api.MountAPI(ar, api.Deps{
			Catalog:         cat,
			Records:         store,
			Sessions:        sessions,
			EnableAuthoring: cfg.EnableAuthoring,
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if dbh != nil {
			if err := dbh.PingContext(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Printf("shutting down")
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// openRecords picks the records store for cfg.DBDriver. The returned *sql.DB
// is nil for the in-memory store.
func openRecords(ctx context.Context, cfg config.Config) (records.Store, *sql.DB, error) {
	if db.Driver(cfg.DBDriver) == db.DriverMemory {
		return records.NewInMemoryStore(), nil, nil
	}
	octx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(octx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	return records.NewSQLStore(dbh), dbh, nil
}
