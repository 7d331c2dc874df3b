package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cacheadapter "github.com/brightdesk/books-connect/internal/adapter/cache"
	"github.com/brightdesk/books-connect/internal/adapter/quickbooks"
	"github.com/brightdesk/books-connect/internal/config"
	httptransport "github.com/brightdesk/books-connect/internal/http"
	"github.com/brightdesk/books-connect/internal/http/handler"
	httpmiddleware "github.com/brightdesk/books-connect/internal/http/middleware"
	"github.com/brightdesk/books-connect/internal/identity"
	"github.com/brightdesk/books-connect/internal/mail"
	"github.com/brightdesk/books-connect/internal/repository"
	"github.com/brightdesk/books-connect/internal/server"
	"github.com/brightdesk/books-connect/internal/service/connect"
	"github.com/brightdesk/books-connect/internal/service/invite"
	"github.com/brightdesk/books-connect/internal/state"
	"github.com/brightdesk/books-connect/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newCredentialRepository,
			newInvitationRepository,
			newRedisClient,
			newStateStore,
			state.NewRegistry,
			newProviderClient,
			newIdentityVerifier,
			newMailer,
			connect.NewService,
			newInviteService,
			handler.NewConnectHandler,
			handler.NewInviteHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newCredentialRepository(pool *pgxpool.Pool) repository.CredentialRepository {
	return repository.NewPostgresCredentialRepo(pool)
}

func newInvitationRepository(pool *pgxpool.Pool) repository.InvitationRepository {
	return repository.NewPostgresInvitationRepo(pool)
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newStateStore(client redis.UniversalClient) state.Store {
	return cacheadapter.NewRedisStateStore(client)
}

func newProviderClient(cfg config.Config, logger *zap.Logger) quickbooks.Client {
	return quickbooks.NewHTTPClient(quickbooks.Config{
		ClientID:     cfg.QuickBooksClientID,
		ClientSecret: cfg.QuickBooksClientSecret,
		RedirectURI:  cfg.QuickBooksRedirectURI,
		Environment:  cfg.QuickBooksEnvironment,
	}, nil, logger)
}

func newIdentityVerifier(cfg config.Config) (identity.Verifier, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return identity.NewOIDCVerifier(ctx, cfg.IdentityIssuerURL, cfg.IdentityClientID)
}

func newMailer(cfg config.Config) mail.Sender {
	return &mail.SMTPSender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Account:  cfg.SMTPAccount,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}
}

func newInviteService(invitations repository.InvitationRepository, mailer mail.Sender, node *snowflake.Node, cfg config.Config, logger *zap.Logger) *invite.Service {
	return invite.NewService(invitations, mailer, node, cfg.InviteAcceptURL, logger)
}

func newAuthMiddleware(verifier identity.Verifier) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{Verifier: verifier}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
