// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tradedispatch/internal/config"
	httptransport "tradedispatch/internal/http"
	"tradedispatch/internal/infra"
	"tradedispatch/internal/logger"
	"tradedispatch/internal/maps"
	"tradedispatch/internal/modules/assignment"
	"tradedispatch/internal/modules/contractor"
	"tradedispatch/internal/modules/distance"
	"tradedispatch/internal/modules/job"
	"tradedispatch/internal/modules/recommend"
	"tradedispatch/internal/modules/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Provider.APIKey == "" {
		zlog.Fatal("DISPATCH_MAPS_API_KEY is required")
	}
	mapsClient, err := infra.NewMapsClient(cfg.Provider.APIKey)
	if err != nil {
		zlog.Fatal("maps client init", zap.Error(err))
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		zlog.Fatal("database init", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	distanceProvider := maps.NewDistanceService(mapsClient, cfg.Provider, zlog)
	distanceSvc := distance.NewService(distanceProvider, distance.NewStore(redisClient), cfg.Cache, zlog)
	geocodeSvc := maps.NewGeocodeService(mapsClient, cfg.Cache, zlog)

	jobStore := job.NewStore(dbPool)
	contractorStore := contractor.NewStore(dbPool)
	assignmentStore := assignment.NewStore(dbPool)

	engine := scoring.NewEngine(cfg.Scoring)
	recommendSvc := recommend.NewService(
		jobStore, contractorStore, assignmentStore, distanceSvc,
		engine, cfg.Scoring, zlog,
	)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Recommend: recommendSvc,
		Geocode:   geocodeSvc,
		Log:       zlog,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	zlog.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zlog.Fatal("server exited", zap.Error(err))
	}
}
