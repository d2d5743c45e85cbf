package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"veas/site/internal/app"
	"veas/site/internal/cache"
	"veas/site/internal/config"
	"veas/site/internal/content"
	"veas/site/internal/email"
	"veas/site/internal/export"
	"veas/site/internal/placeholder"
	"veas/site/internal/relay"
	"veas/site/internal/render"
	"veas/site/internal/search"
	"veas/site/internal/sheets"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the website and the contact API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	rt, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()
	logger := rt.logger

	images, err := imageResolver(rt.cfg, logger)
	if err != nil {
		return err
	}
	engine, err := render.NewEngine(render.DefaultTable(), images, logger.Named("render"))
	if err != nil {
		return err
	}

	deps := app.Dependencies{
		Store:    rt.store,
		Resolver: content.NewResolver(rt.store, engine.Table(), logger.Named("resolver")),
		Engine:   engine,
		Exporter: export.NewService(logger),
		Logger:   logger,
	}

	if rt.cfg.CacheEnabled() {
		pageCache, err := cache.NewPageCache(rt.cfg.RedisURL, rt.cfg.PageCacheTTL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer pageCache.Close()
		deps.Cache = pageCache
		logger.Info("page cache enabled", zap.Duration("ttl", rt.cfg.PageCacheTTL))
	}

	index := meiliIndex(rt.cfg, logger)
	if meili, ok := index.(*search.Meili); ok {
		defer meili.Close()
	}
	deps.Search = search.NewService(index, search.NewPgFTS(rt.db), logger)

	contactRelay, err := buildRelay(ctx, rt)
	if err != nil {
		return err
	}
	deps.Relay = contactRelay

	service := app.New(rt.cfg, deps)
	httpServer := app.NewHTTPServer(service, rt.cfg.CORSOrigin, rt.cfg.StaticDir, logger)
	server := &http.Server{
		Addr:              rt.cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("site listening", zap.String("addr", rt.cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	return nil
}

func imageResolver(cfg config.Config, logger *zap.Logger) (*placeholder.Resolver, error) {
	catalog := placeholder.DefaultCatalog()
	if cfg.ImageCatalog != "" {
		loaded, err := placeholder.LoadCatalogFile(cfg.ImageCatalog)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}
	return placeholder.NewResolver(catalog,
		placeholder.WithBaseURL(cfg.AssetBaseURL),
		placeholder.WithLogger(logger.Named("images")),
	), nil
}

// meiliIndex returns nil when Meilisearch is not configured so that search
// goes straight to Postgres.
func meiliIndex(cfg config.Config, logger *zap.Logger) search.Index {
	if cfg.MeiliURL == "" {
		logger.Info("meilisearch not configured, using postgres full-text search")
		return nil
	}
	return search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logger)
}

func buildRelay(ctx context.Context, rt *appEnv) (*relay.Relay, error) {
	loc, err := rt.cfg.Location()
	if err != nil {
		return nil, err
	}
	opts := []relay.Option{relay.WithLocation(loc), relay.WithLogger(rt.logger.Named("relay"))}

	if rt.cfg.SheetEnabled() {
		appender, err := sheets.New(ctx, rt.cfg.SheetID, rt.cfg.SheetRange, rt.cfg.GoogleCredsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, relay.WithSheet(appender))
	}

	mailer := email.NewService(email.Config{
		Host:     rt.cfg.SMTPHost,
		Port:     rt.cfg.SMTPPort,
		Username: rt.cfg.SMTPUsername,
		Password: rt.cfg.SMTPPassword,
		From:     rt.cfg.SMTPFrom,
		FromName: rt.cfg.SMTPFromName,
		NotifyTo: rt.cfg.NotifyTo,
	})
	if mailer.IsConfigured() {
		opts = append(opts, relay.WithNotifier(mailer))
	}

	return relay.New(rt.store, opts...), nil
}
