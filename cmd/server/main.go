package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "kosfinder/internal/admin"
	"kosfinder/internal/audit"
	"kosfinder/internal/auth"
	facilityhandler "kosfinder/internal/facility/handler"
	facilitystore "kosfinder/internal/facility/store"
	jwttoken "kosfinder/internal/jwt_token"
	listingcache "kosfinder/internal/listing/cache"
	listinghandler "kosfinder/internal/listing/handler"
	listingmetrics "kosfinder/internal/listing/metrics"
	listingservice "kosfinder/internal/listing/service"
	listingstore "kosfinder/internal/listing/store"
	"kosfinder/internal/media"
	"kosfinder/internal/platform/config"
	"kosfinder/internal/platform/httpserver"
	"kosfinder/internal/platform/logger"
	"kosfinder/internal/platform/metrics"
	"kosfinder/internal/platform/middleware"
	"kosfinder/internal/platform/postgres"
	"kosfinder/internal/platform/redis"
	usermodels "kosfinder/internal/user/models"
	userservice "kosfinder/internal/user/service"
	userstore "kosfinder/internal/user/store"
)

// main wires the dependency graph and keeps the server lifecycle small.
// Business logic lives in the internal feature packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	platformMetrics := metrics.New()
	registryMetrics := listingmetrics.New(prometheus.DefaultRegisterer)

	// Stores: Postgres when configured, in-memory otherwise so the service
	// still runs in local development.
	var (
		users      userstore.Store
		listings   listingstore.ListingStore
		facilities listingstore.FacilityLinkStore
		reviews    listingstore.ReviewStore
		storeTx    listingstore.StoreTx
		facTypes   facilitystore.Store
		auditSink  audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		listingPG := listingstore.NewPostgres(db)
		users = userstore.NewPostgres(db)
		listings, facilities, reviews = listingPG, listingPG, listingPG
		storeTx = listingstore.NewPostgresTx(db)
		facTypes = facilitystore.NewPostgres(db)
		auditSink = audit.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		listingMem := listingstore.NewInMemory()
		users = userstore.NewInMemory()
		listings, facilities, reviews = listingMem, listingMem, listingMem
		storeTx = listingstore.NewInMemoryTx()
		facTypes = facilitystore.NewInMemory()
		auditSink = audit.NewInMemory()
	}

	var markerCache *listingcache.MarkerCache
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, marker cache disabled", "error", err)
	} else if redisClient != nil {
		defer redisClient.Close()
		markerCache = listingcache.NewMarkerCache(redisClient.Client, config.MarkerCacheTTL, log)
	}

	var blobs media.BlobStore
	blobs, err = media.NewMinIOStore(ctx, cfg.MinIOEndpoint, cfg.MinIOAccessKey,
		cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, log)
	if err != nil {
		log.Warn("minio unavailable, keeping images in memory", "error", err)
		blobs = media.NewInMemoryBlobStore("/media")
	}

	auditPublisher := audit.NewPublisher(256, log)
	auditWorker := audit.NewWorker(auditSink, auditPublisher.Inbox(), log)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	requireAuth := middleware.RequireAuth(jwtService, log)
	optionalAuth := middleware.OptionalAuth(jwtService)
	requireAdmin := middleware.RequireRole(string(usermodels.RoleAdmin), log)

	userSvc := userservice.New(users, log, platformMetrics)
	listingSvc := listingservice.New(listings, facilities, reviews, storeTx,
		users, markerCache, auditPublisher, registryMetrics, log)
	mediaSvc := media.NewService(blobs, auditPublisher, log)
	verifier := auth.NewTokenInfoVerifier(cfg.GoogleTokenInfoURL)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.ClientMetadata,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.Timeout(30*time.Second),
		middleware.Latency(platformMetrics),
	)

	listinghandler.New(listingSvc, log, requireAuth, optionalAuth).Register(router)
	facilityhandler.New(facTypes, log).Register(router)
	auth.NewHandler(verifier, userSvc, jwtService, cfg.JWTTTL, auditPublisher, log, requireAuth).Register(router)
	media.NewHandler(mediaSvc, log, requireAuth).Register(router)
	adminhandler.NewHandler(listingSvc, userSvc, log, requireAuth, requireAdmin).Register(router)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("kosfinder listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
