package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mergington/go-activity-server/activities"
	"github.com/mergington/go-activity-server/authflow"
	"github.com/mergington/go-activity-server/internal/config"
	"github.com/mergington/go-activity-server/provider"
	"github.com/mergington/go-activity-server/server"
	"github.com/mergington/go-activity-server/session"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, reading environment directly")
	}

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	handler, err := buildServer(c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func buildServer(c config.Config) (*server.Server, error) {
	logger := log.Logger

	var flowRepo authflow.Repo
	var sessionRepo session.Repo
	if addr := c.GetRedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
		}
		logger.Info().Str("addr", addr).Msg("using redis session storage")
		flowRepo = authflow.NewRedisRepo(client)
		sessionRepo = session.NewRedisRepo(client)
	} else {
		flowRepo = authflow.NewInMemoryRepo()
		sessionRepo = session.NewInMemoryRepo()
	}

	oauthClient, err := buildProviderClient(c, logger)
	if err != nil {
		return nil, err
	}

	flow := authflow.NewStore(flowRepo, c.GetPendingAuthTimeout(), logger)
	manager, err := session.NewManager(
		flow,
		oauthClient,
		sessionRepo,
		c.GetAccessTokenExpiry(),
		c.GetRefreshTokenExpiry(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session manager: %w", err)
	}

	catalog := activities.NewService(activities.DefaultCatalog())
	return server.New(c, manager, catalog, oauthClient, logger)
}

func buildProviderClient(c config.Config, logger zerolog.Logger) (*provider.Client, error) {
	if issuer := c.GetOAuthIssuer(); issuer != "" {
		ctx, cancel := context.WithTimeout(context.Background(), c.GetProviderTimeout())
		defer cancel()
		logger.Info().Str("issuer", issuer).Msg("discovering provider endpoints")
		return provider.NewFromIssuer(ctx, c, logger)
	}
	return provider.New(c, logger), nil
}

func configureLogging(c config.Config) {
	zerolog.DurationFieldUnit = time.Millisecond
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
