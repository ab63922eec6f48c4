package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/atinyakov/clickshort/internal/app/server"
	"github.com/atinyakov/clickshort/internal/app/service"
	"github.com/atinyakov/clickshort/internal/cache"
	"github.com/atinyakov/clickshort/internal/config"
	"github.com/atinyakov/clickshort/internal/logger"
	"github.com/atinyakov/clickshort/internal/repository"
	"github.com/atinyakov/clickshort/internal/storage"
	"github.com/atinyakov/clickshort/internal/worker"

	_ "net/http/pprof"
)

var buildVersion string
var buildDate string
var buildCommit string

const shutdownTimeout = 10 * time.Second

// linkStore is what every backend provides.
type linkStore interface {
	service.LinkStore
	service.AdminStore
}

type app struct {
	router  *chi.Mux
	urls    *service.URLService
	auth    *service.Auth
	retrier *worker.ClickRetryWorker
	closers []func() error
	logger  *zap.Logger
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", zap.Error(err))
		}
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func main() {
	fmt.Printf("Build version: %s\n", valueOr(buildVersion, "N/A"))
	fmt.Printf("Build date: %s\n", valueOr(buildDate, "N/A"))
	fmt.Printf("Build commit: %s\n", valueOr(buildCommit, "N/A"))

	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, options, log.Log); err != nil {
		log.Log.Error("server stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	a, err := newApp(ctx, options, zapLogger)
	if err != nil {
		return err
	}
	defer a.Close()

	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		a.retrier.Run(workerCtx)
	}()

	if options.EnablePprof {
		go func() {
			zapLogger.Info("Starting pprof server", zap.String("addr", "localhost:6060"))
			if err := http.ListenAndServe("localhost:6060", nil); err != nil {
				zapLogger.Error("pprof server error", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              options.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if options.EnableHTTPS {
			host := strings.TrimPrefix(strings.TrimPrefix(options.ResultHostname, "https://"), "http://")
			manager := &autocert.Manager{
				Cache:      autocert.DirCache("cache-dir"),
				Prompt:     autocert.AcceptTOS,
				HostPolicy: autocert.HostWhitelist(strings.Split(host, ":")[0]),
			}
			srv.Addr = ":443"
			srv.TLSConfig = manager.TLSConfig()
			zapLogger.Info("Server is running with TLS", zap.String("host", host))
			serveErr <- srv.ListenAndServeTLS("", "")
			return
		}

		zapLogger.Info("Server is running", zap.String("address", options.Port))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		stopWorker()
		<-workerDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)

	// in-flight redirects may still enqueue clicks until Shutdown returns
	stopWorker()
	<-workerDone

	return err
}

// newApp selects the storage backend and builds every component. The first
// configured backend wins: PostgreSQL, SQLite, file journal, memory.
func newApp(ctx context.Context, options *config.Options, zapLogger *zap.Logger) (*app, error) {
	a := &app{logger: zapLogger}

	store, err := openStore(ctx, options, zapLogger, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.retrier = worker.NewClickRetryWorker(zapLogger, store, worker.DefaultFlushInterval, worker.DefaultMaxAttempts)

	opts := []service.Option{
		service.WithClickRetrier(a.retrier),
		service.WithMaxAttempts(options.MaxAttempts),
	}

	if options.RedisAddr != "" {
		c, err := cache.NewRedisCache(ctx, options.RedisAddr, options.RedisPassword, options.RedisDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, c.Close)
		opts = append(opts, service.WithCache(c))
		zapLogger.Info("resolve cache enabled", zap.String("addr", options.RedisAddr))
	}

	a.urls = service.NewURL(store, service.NewRandomGenerator(options.ShortCodeLength), zapLogger, options.ResultHostname, opts...)

	a.auth = service.NewAuth(store, options.JWTSecret, options.TokenTTL, zapLogger)
	if err := a.auth.Bootstrap(ctx, options.AdminUsername, options.AdminPassword); err != nil {
		a.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	a.router, err = server.Init(a.urls, a.auth, zapLogger, options.TrustedSubnet)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("trusted subnet: %w", err)
	}

	return a, nil
}

func openStore(ctx context.Context, options *config.Options, zapLogger *zap.Logger, a *app) (linkStore, error) {
	switch {
	case options.DatabaseDSN != "":
		zapLogger.Info("using postgres")
		db, err := repository.InitDB(options.DatabaseDSN, zapLogger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		repo := repository.CreateURLRepository(db, zapLogger)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		return repo, nil

	case options.SQLitePath != "":
		zapLogger.Info("using sqlite", zap.String("path", options.SQLitePath))
		db, err := repository.InitSQLite(options.SQLitePath, zapLogger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		repo := repository.CreateSQLiteRepository(db, zapLogger)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		return repo, nil

	case options.FilePath != "":
		zapLogger.Info("using file", zap.String("filePath", options.FilePath))
		fs, err := storage.NewFileStorage(options.FilePath, zapLogger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, fs.Close)
		return fs, nil

	default:
		zapLogger.Info("using in memory storage")
		return storage.CreateMemoryStorage()
	}
}
