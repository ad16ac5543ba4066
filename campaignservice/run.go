// Package campaignservice boots the campaign HTTP service.
package campaignservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ampline/ampline/internal/api"
	"github.com/ampline/ampline/internal/brand"
	"github.com/ampline/ampline/internal/config"
	"github.com/ampline/ampline/internal/logger"
	"github.com/ampline/ampline/internal/mailer"
	"github.com/ampline/ampline/internal/provider"
	"github.com/ampline/ampline/internal/services"
	"github.com/ampline/ampline/internal/store"
	"github.com/ampline/ampline/internal/store/postgres"
	"github.com/ampline/ampline/internal/store/sqlite"
	"github.com/ampline/ampline/internal/template"
	"github.com/ampline/ampline/internal/token"
)

// Run starts the campaign service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("ampline-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("base_url", cfg.BaseURL).
		Str("brand_config_dir", cfg.BrandConfigDir).
		Bool("smtp_configured", cfg.SMTPHost != "").
		Bool("provider_configured", cfg.OpenRouterAPIKey != "").
		Msg("Campaign service starting")

	ctx, stop := newServerContext()
	defer stop()

	st, err := newStore(ctx, cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	loader := brand.NewLoader(cfg.BrandConfigDir)
	if err := loader.Sync(ctx, st); err != nil {
		log.Error().Stack().Err(err).Msg("Brand sync failed")
		return err
	}

	router := buildRouter(cfg, st, loader, log)
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// newStore builds the store adapter selected by DB_DRIVER.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		return postgres.New(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// buildRouter wires services and handlers into the HTTP router.
func buildRouter(cfg *config.Config, st store.Store, loader *brand.Loader, log zerolog.Logger) http.Handler {
	var src template.Source = template.NewEmbeddedSource()
	if cfg.TemplateDir != "" {
		src = template.NewDirSource(cfg.TemplateDir)
	}
	renderer := template.NewRenderer(src)
	signer := token.NewSigner(cfg.AppSecret)

	sender := mailer.New(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		UseTLS:   cfg.SMTPUseTLS,
		Retries:  cfg.MailerRetries,
	})

	modelProvider := provider.NewOpenRouter(provider.OpenRouterConfig{
		APIKey:  cfg.OpenRouterAPIKey,
		Model:   cfg.OpenRouterModel,
		URL:     cfg.OpenRouterURL,
		Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		Retries: cfg.ProviderRetries,
	})

	campaignSvc := services.NewCampaignService(st, loader, renderer, signer, sender, cfg.ChatEndpoint(), log)
	chatSvc := services.NewChatService(st, modelProvider, cfg.ChatSystemPrompt)

	return api.NewRouter(api.Deps{
		Store:     st,
		Brands:    loader,
		Campaigns: campaignSvc,
		Chat:      chatSvc,
		Verifier:  signer,
		Logger:    log,
	})
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
