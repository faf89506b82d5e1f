package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/orthodeskhq/orthodesk-backend/api/routes"
	"github.com/orthodeskhq/orthodesk-backend/internal/address"
	"github.com/orthodeskhq/orthodesk-backend/internal/analytics"
	"github.com/orthodeskhq/orthodesk-backend/internal/auth"
	"github.com/orthodeskhq/orthodesk-backend/internal/browse"
	"github.com/orthodeskhq/orthodesk-backend/internal/calls"
	"github.com/orthodeskhq/orthodesk-backend/internal/folders"
	"github.com/orthodeskhq/orthodesk-backend/internal/media"
	"github.com/orthodeskhq/orthodesk-backend/internal/memberships"
	"github.com/orthodeskhq/orthodesk-backend/internal/partners"
	"github.com/orthodeskhq/orthodesk-backend/internal/practices"
	"github.com/orthodeskhq/orthodesk-backend/internal/referrals"
	"github.com/orthodeskhq/orthodesk-backend/internal/socialposts"
	"github.com/orthodeskhq/orthodesk-backend/internal/tour"
	"github.com/orthodeskhq/orthodesk-backend/internal/uploads"
	"github.com/orthodeskhq/orthodesk-backend/internal/users"
	"github.com/orthodeskhq/orthodesk-backend/pkg/auth/session"
	"github.com/orthodeskhq/orthodesk-backend/pkg/config"
	"github.com/orthodeskhq/orthodesk-backend/pkg/db"
	"github.com/orthodeskhq/orthodesk-backend/pkg/logger"
	"github.com/orthodeskhq/orthodesk-backend/pkg/maps"
	"github.com/orthodeskhq/orthodesk-backend/pkg/migrate"
	"github.com/orthodeskhq/orthodesk-backend/pkg/redis"
	"github.com/orthodeskhq/orthodesk-backend/pkg/storage/gcs"
)

// guidedTours maps each tour name to its step count. Adding a tour here is all
// the backend needs; the frontend owns the step content.
var guidedTours = map[string]int{
	"dashboard-intro": 3,
	"media-library":   4,
	"post-composer":   3,
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	membershipsRepo := memberships.NewRepository(dbClient.DB())
	practicesRepo := practices.NewRepository(dbClient.DB())
	foldersRepo := folders.NewRepository(dbClient.DB())
	mediaRepo := media.NewRepository(dbClient.DB())
	partnersRepo := partners.NewRepository(dbClient.DB())
	referralsRepo := referrals.NewRepository(dbClient.DB())
	callsRepo := calls.NewRepository(dbClient.DB())
	postsRepo := socialposts.NewRepository(dbClient.DB())
	analyticsRepo := analytics.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:        usersRepo,
		MembershipsRepo: membershipsRepo,
		SessionManager:  sessionManager,
		JWTConfig:       cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterServiceFromDB(dbClient, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	switchService, err := auth.NewSwitchPracticeService(auth.SwitchPracticeServiceParams{
		MembershipsRepo: membershipsRepo,
		SessionManager:  sessionManager,
		JWTConfig:       cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create switch-practice service", err)
		os.Exit(1)
	}

	practicesService, err := practices.NewService(practicesRepo, membershipsRepo, usersRepo, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create practices service", err)
		os.Exit(1)
	}

	foldersService, err := folders.NewService(foldersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create folders service", err)
		os.Exit(1)
	}

	mediaService, err := media.NewService(
		mediaRepo,
		foldersRepo,
		gcsClient,
		cfg.GCS.BucketName,
		cfg.GCS.DownloadURLExpiry,
		cfg.Media.MaxTagLength,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	uploadsService, err := uploads.NewService(redisClient, mediaRepo, gcsClient, cfg.GCS.BucketName, cfg.GCS.UploadURLExpiry, cfg.Media)
	if err != nil {
		logg.Error(context.Background(), "failed to create uploads service", err)
		os.Exit(1)
	}

	browseService, err := browse.NewService(redisClient, foldersService, mediaService, mediaRepo, cfg.Media)
	if err != nil {
		logg.Error(context.Background(), "failed to create browse service", err)
		os.Exit(1)
	}

	postsService, err := socialposts.NewService(postsRepo, mediaRepo, cfg.Social)
	if err != nil {
		logg.Error(context.Background(), "failed to create posts service", err)
		os.Exit(1)
	}

	var mapsClient *maps.Client
	if cfg.GoogleMaps.APIKey != "" {
		mapsClient, err = maps.NewClient(cfg.GoogleMaps.APIKey)
		if err != nil {
			logg.Error(context.Background(), "failed to create maps client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "google maps api key not set, address guidance disabled")
	}

	svcs := routes.Services{
		Auth:        authService,
		Register:    registerService,
		Switch:      switchService,
		Practices:   practicesService,
		Memberships: membershipsRepo,
		Media:       mediaService,
		Uploads:     uploadsService,
		Folders:     foldersService,
		Browse:      browseService,
		Posts:       postsService,
		Partners:    partners.NewService(partnersRepo),
		Referrals:   referrals.NewService(referralsRepo, partnersRepo),
		Calls:       calls.NewService(callsRepo, partnersRepo, referralsRepo),
		Analytics:   analytics.NewService(analyticsRepo),
		Tour:        tour.NewService(redisClient, guidedTours),
		Address:     address.NewService(mapsClient),
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, gcsClient, sessionManager, svcs),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
