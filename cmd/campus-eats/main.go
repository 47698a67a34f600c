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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/vasiliy-maslov/campus-eats/internal/auth"
	"github.com/vasiliy-maslov/campus-eats/internal/broker"
	"github.com/vasiliy-maslov/campus-eats/internal/catalog"
	"github.com/vasiliy-maslov/campus-eats/internal/config"
	"github.com/vasiliy-maslov/campus-eats/internal/db"
	apihttp "github.com/vasiliy-maslov/campus-eats/internal/handler/http"
	"github.com/vasiliy-maslov/campus-eats/internal/order"
	"github.com/vasiliy-maslov/campus-eats/internal/realtime"
	"github.com/vasiliy-maslov/campus-eats/internal/user"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg)

	log.Info().Str("env", cfg.App.Env).Msg("campus-eats starting...")

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.Postgres); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pg.Close()

	registry := realtime.NewRegistry()
	policy := order.PolicyLenient
	if cfg.Orders.StrictTransitions {
		policy = order.PolicyStrict
	}
	orderOpts := []order.Option{
		order.WithPolicy(policy),
		order.WithNotifier(realtime.NewDispatcher(registry)),
	}

	if cfg.RabbitMQ.URL != "" {
		publisher, err := broker.Dial(cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close RabbitMQ publisher")
			}
		}()
		orderOpts = append(orderOpts, order.WithNotifier(publisher))
		log.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("Publishing order updates to RabbitMQ")
	}

	catalogSvc := catalog.NewService(catalog.NewRepository(pg.Pool))
	userSvc := user.NewService(user.NewRepository(pg.Pool))
	orderSvc := order.NewService(order.NewRepository(pg.Pool), catalogSvc, userSvc, orderOpts...)
	log.Info().Stringer("policy", policy).Msg("Order service configured")

	router := apihttp.NewRouter(apihttp.RouterDeps{
		Catalog:  catalogSvc,
		Orders:   orderSvc,
		Users:    userSvc,
		Tokens:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Realtime: realtime.NewHandler(registry, cfg.Realtime),
		DB:       pg.Pool,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.App.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "campus-eats").Logger()

	if err != nil {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
	}
}
