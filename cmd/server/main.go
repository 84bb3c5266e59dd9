package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/soaringjerry/Brightpath/internal/api"
	"github.com/soaringjerry/Brightpath/internal/config"
	dbstore "github.com/soaringjerry/Brightpath/internal/db"
	"github.com/soaringjerry/Brightpath/internal/logger"
	"github.com/soaringjerry/Brightpath/internal/middleware"
	"github.com/soaringjerry/Brightpath/internal/notify"
	"github.com/soaringjerry/Brightpath/internal/services"
	"github.com/soaringjerry/Brightpath/internal/utils"
)

func main() {
	envFile := flag.String("env-file", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, "brightpath")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	auth := middleware.NewAuthenticator(cfg.JWTSecret)
	rt, err := api.NewRouter(api.Options{
		Store:    store,
		Notifier: newNotifier(cfg, log),
		Signer:   auth.SignToken,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	rt.Register(mux)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		locale := middleware.LocaleFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       cfg.AppName + " API",
			"locale":     locale,
			"msg":        utils.T(locale, "health.ok"),
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     cfg.Commit,
			"build_time": cfg.BuildTime,
		})
	})
	mountFrontend(mux, cfg, log)

	origins := cfg.AllowedOrigins
	if cfg.DevFrontendURL != "" {
		origins = append(origins, cfg.DevFrontendURL)
	}
	handler := middleware.SecureHeaders(cfg.IsProduction())(
		middleware.CORS(origins)(
			middleware.NoStore(
				middleware.LocaleMiddleware(
					auth.WithAuth(mux)))))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env), zap.String("storage", cfg.StorageDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore builds the configured backend. The redis driver keeps
// appointments in Redis and everything else in memory.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (api.Store, func(), error) {
	switch cfg.StorageDriver {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.ToSlash(cfg.SQLitePath))
		conn, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		closeFn := func() {
			if err := conn.Close(); err != nil {
				log.Warn("close sqlite", zap.Error(err))
			}
		}
		if err := dbstore.RunMigrations(conn, cfg.MigrationsDir); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		store, err := dbstore.NewSQLiteStore(conn, log)
		if err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("init sqlite store: %w", err)
		}
		if _, err := ImportLegacySnapshot(ctx, cfg.LegacySnapshot, store, log); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("import legacy snapshot: %w", err)
		}
		return store, closeFn, nil
	case "redis":
		rdb, err := dbstore.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		store := api.WithAppointmentStore(api.NewMemoryStore(), dbstore.NewRedisAppointmentStore(rdb))
		return store, func() { _ = rdb.Close() }, nil
	default:
		return api.NewMemoryStore(), func() {}, nil
	}
}

func newNotifier(cfg *config.Config, log *zap.Logger) services.Notifier {
	fallback := notify.NewLogNotifier(log, cfg.AppName)
	if cfg.SendgridAPIKey == "" {
		return fallback
	}
	return notify.NewSendgridNotifier(cfg.SendgridAPIKey, cfg.SendgridHost, cfg.AppName, cfg.MailFrom, fallback, log)
}

// mountFrontend serves the dashboard: a static build when StaticDir is set,
// otherwise a reverse proxy to the dev server when DevFrontendURL is set.
func mountFrontend(mux *http.ServeMux, cfg *config.Config, log *zap.Logger) {
	switch {
	case cfg.StaticDir != "":
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	case cfg.DevFrontendURL != "":
		u, err := url.Parse(strings.TrimSpace(cfg.DevFrontendURL))
		if err != nil {
			log.Warn("invalid dev frontend url", zap.String("url", cfg.DevFrontendURL), zap.Error(err))
			return
		}
		rp := httputil.NewSingleHostReverseProxy(u)
		rp.ModifyResponse = func(res *http.Response) error {
			middleware.SetNoStore(res.Header)
			return nil
		}
		mux.Handle("/", rp)
	}
}
