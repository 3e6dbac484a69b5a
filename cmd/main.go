// collector-service: vacancy ingestion and salary statistics.
//
// One process, three long-lived parts:
//   - the collector loop: per-profession day-window polling of the HH
//     search API with three-state backoff (error / advanced / up-to-date)
//   - the nightly area-tree sync (cron, plus one run at startup)
//   - the REST API serving reference data, vacancy listings and
//     salary statistics
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"eachjob/collector-service/internal/areas"
	"eachjob/collector-service/internal/collector"
	"eachjob/collector-service/internal/config"
	"eachjob/collector-service/internal/db"
	"eachjob/collector-service/internal/hh"
	"eachjob/collector-service/internal/stats"
	"eachjob/collector-service/internal/store"
	"eachjob/collector-service/internal/webapi"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[collector-service] Config error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Println("[collector-service] Connecting to PostgreSQL…")
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[collector-service] PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("[collector-service] Schema: %v", err)
	}
	log.Println("[collector-service] PostgreSQL connected ✓")

	// ── Redis ────────────────────────────────────────────────────────────────
	log.Println("[collector-service] Connecting to Redis…")
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("[collector-service] Redis: %v", err)
	}
	defer rdb.Close()
	log.Println("[collector-service] Redis connected ✓")

	// ── Wiring ───────────────────────────────────────────────────────────────
	client := hh.NewClient(cfg.HHBaseURL, cfg.HHAccessToken, cfg.HHUserAgent)
	catalog := store.NewCatalogRepo(pool)
	vacancies := store.NewVacancyRepo(pool)
	engine := stats.NewEngine(vacancies)

	advancer := collector.NewAdvancer(client, vacancies, catalog)
	loop := collector.NewLoop(advancer, catalog)

	// ── Background tasks ─────────────────────────────────────────────────────
	var wg sync.WaitGroup

	if cfg.CollectorEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loop.Run(ctx)
		}()
	} else {
		log.Println("[collector-service] Collector disabled, serving API only")
	}

	c := cron.New()
	syncer := areas.NewSyncer(client, catalog)
	if err := syncer.Schedule(ctx, c); err != nil {
		log.Fatalf("[collector-service] Areas sync: %v", err)
	}
	c.Start()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)

	h := webapi.NewHandler(catalog, vacancies, engine, rdb)
	h.RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[collector-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[collector-service] HTTP server error: %v", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[collector-service] Shutting down…")
	cancel() // stops scheduling new sweeps; the in-flight sweep finishes
	<-c.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[collector-service] Shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("[collector-service] Stopped.")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "collector-service",
		"version": version,
	})
}
