package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/orionchat/registry/codec"
	"github.com/orionchat/registry/internal/config"
	"github.com/orionchat/registry/internal/domain"
	"github.com/orionchat/registry/internal/infra/database"
	"github.com/orionchat/registry/internal/infra/repository"
	"github.com/orionchat/registry/internal/infra/telemetry"
	"github.com/orionchat/registry/internal/present/rest"
	"github.com/orionchat/registry/internal/present/rest/middleware"
	"github.com/orionchat/registry/internal/service"
	"github.com/orionchat/registry/internal/usecase"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	runtimeConfig := domain.Config{
		FQDN:         conf.NodeInfo.FQDN,
		Registration: conf.NodeInfo.Registration,
		JWTSecret:    conf.Server.JWTSecret,
		TokenTTL:     time.Duration(conf.Server.TokenTTL),
		StoreTimeout: time.Duration(conf.Server.StoreTimeout),
	}

	ctx := context.Background()

	if conf.Server.EnableTrace {
		shutdown, err := telemetry.Setup(ctx, "orion-registry", conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer shutdown(ctx)
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = database.MigratePostgres(db)
	if err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)

	// the conformance self-check runs here, once, before any key material
	// crosses a boundary
	cdc := codec.Default()

	userRepo := repository.NewUserRepository(db)
	identityRepo := repository.NewIdentityRepository(db, mc)
	prekeyRepo := repository.NewPreKeyRepository(db)

	authService := service.NewAuthService(runtimeConfig)
	eventService := service.NewEventService(rdb)

	accountUC := usecase.NewAccountUsecase(userRepo, runtimeConfig)
	identityUC := usecase.NewIdentityUsecase(identityRepo, cdc, runtimeConfig)
	prekeyUC := usecase.NewPreKeyUsecase(prekeyRepo, identityUC, runtimeConfig)
	registryUC := usecase.NewRegistryUsecase(accountUC, identityUC, eventService)

	handler := rest.NewHandler(runtimeConfig, registryUC, accountUC, identityUC, prekeyUC, authService, eventService)
	authMiddleware := middleware.NewAuthMiddleware(authService, runtimeConfig)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("orion-registry"))
	}
	e.Use(authMiddleware.IdentifyRequester)

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}
