// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rutero/internal/ai"
	"rutero/internal/config"
	"rutero/internal/geo"
	httptransport "rutero/internal/http"
	"rutero/internal/infra"
	"rutero/internal/metrics"
	"rutero/internal/modules/planner"
	"rutero/internal/modules/route"
	"rutero/internal/modules/stop"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Geo.APIKey == "" {
		log.Fatal("RUTERO_MAPS_API_KEY is required")
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	mapsClient, err := geo.NewClient(cfg.Geo.APIKey)
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}
	roads := geo.NewCachedNetwork(mapsClient, redisClient, time.Duration(cfg.Geo.CacheTTLHours)*time.Hour)

	var advisor ai.Advisor
	if cfg.AI.GeminiKey != "" {
		g, err := ai.NewGeminiAdvisor(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Printf("gemini init failed, loading guidance falls back to rule-based: %v", err)
		} else {
			defer g.Close()
			advisor = g
		}
	}

	metrics.RegisterDefault()

	stopStore := stop.NewPostgresStore(dbPool)
	stopService := stop.NewService(stopStore, mapsClient)

	plannerService := planner.NewService(roads, time.Duration(cfg.Geo.TimeoutSeconds)*time.Second)

	routeStore := route.NewPostgresStore(dbPool)
	routeService := route.NewService(routeStore, stopStore, plannerService, advisor)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httptransport.NewRouter(routeService, stopService),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("rutero-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
