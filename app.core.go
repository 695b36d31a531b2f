package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AppProvider runs the book catalog until it is asked to stop.
type AppProvider interface {
	Run() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	cleanups       []func() error
	queueConsumers []func(context.Context) error
}

// SetupAppLogger builds the App logger writing to the rotated files
// of the configured logs folder. The returned cleanup flushes the
// pending entries then closes the current file.
func SetupAppLogger(config *Config, clock Clocker) (*zap.Logger, func() error, error) {
	if err := os.MkdirAll(config.LogFolder, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	writer := NewRotatingWriter(config, clock)
	logger, flusher := SetupLogging(config, writer, NewLoggerClock(clock))
	cleanup := func() error {
		return errors.Join(flusher(), writer.Close())
	}
	return logger, cleanup, nil
}

// NewApp wires the storage, the services and the http server of the catalog.
func NewApp(config *Config) (AppProvider, error) {
	clock := NewClock(config.IsProduction)
	logger, closeLogs, err := SetupAppLogger(config, clock)
	if err != nil {
		return nil, err
	}

	idsHandler := NewIDsHandler()
	store, err := NewCatalogStore(context.Background(), config, logger, idsHandler)
	if err != nil {
		_ = closeLogs()
		return nil, err
	}

	bookService := NewBookService(logger, &config.Catalog, store.Storage, store.Queue)
	descService := NewDescriptionService(logger, &config.Generator, NewOpenAIGenerator(&config.Generator))
	apiService := NewAPIHandler(
		logger,
		config,
		NewStatistics(config, clock.Now()),
		clock,
		idsHandler,
		bookService,
		descService,
	)

	public, ops := apiService.MiddlewaresStacks()
	router := apiService.SetupRoutes(httprouter.New(), &MiddlewareMap{public: public.Chain, ops: ops.Chain})

	srv := &http.Server{
		Addr:           net.JoinHostPort(config.Server.Host, config.Server.Port),
		Handler:        http.TimeoutHandler(router, config.Server.RequestTimeout, "Timeout. Processing taking too long. Please reach out to support."),
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	app := &App{
		logger:   logger,
		config:   config,
		server:   srv,
		cleanups: []func() error{store.Close, closeLogs},
	}

	if store.Consumer != nil {
		app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
			return store.Consumer.Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue)
		})
	}
	return app, nil
}

// Run serves the api and the replication consumers until SIGINT or SIGTERM
// is received or one of them fails. Resources are released before returning.
func (app *App) Run() error {
	defer app.Clean()
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(sigCtx)
	for _, consume := range app.queueConsumers {
		consume := consume
		g.Go(func() error { return consume(ctx) })
	}
	g.Go(app.listen)
	g.Go(func() error {
		app.shutdown(ctx, sigCtx)
		return nil
	})

	err := g.Wait()
	app.logger.Info("catalog: api server stopped", zap.String("app.address", app.server.Addr), zap.Error(err))
	return err
}

func (app *App) listen() error {
	app.logger.Info("catalog: api server starting",
		zap.String("app.address", app.server.Addr),
		zap.String("app.storage", app.config.Storage.Driver),
		zap.Bool("app.replication", app.config.Storage.Replication),
	)
	if err := app.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// shutdown waits for the group to be done then drains the server. The
// connections still open after the shutdown timeout are closed.
func (app *App) shutdown(ctx, sigCtx context.Context) {
	<-ctx.Done()
	reason := "server failure"
	if sigCtx.Err() != nil {
		reason = "stop signal"
	}
	app.logger.Info("catalog: api server stopping", zap.String("reason", reason))

	sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()
	if err := app.server.Shutdown(sCtx); err != nil {
		app.logger.Warn("catalog: graceful shutdown failed", zap.Error(err), zap.NamedError("close", app.server.Close()))
		return
	}
	app.logger.Info("catalog: graceful shutdown succeeded")
}

// Clean runs the registered cleanups. The logger may already be
// closed at this point so failures go to the standard error.
func (app *App) Clean() {
	for _, cleanup := range app.cleanups {
		if err := cleanup(); err != nil {
			fmt.Fprintln(os.Stderr, "catalog: cleanup failed:", err)
		}
	}
}
