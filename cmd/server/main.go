package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"route-optimizer-service/internal/adapters/cache"
	"route-optimizer-service/internal/adapters/distance"
	"route-optimizer-service/internal/adapters/repositories"
	"route-optimizer-service/internal/api"
	"route-optimizer-service/internal/config"
	"route-optimizer-service/internal/engine"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/ports"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, Redis, routing providers) behind
// ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dbPath := config.Get("DB_PATH", "data/app.db")
	port := config.Get("PORT", "8080")
	providerName := config.Get("MATRIX_PROVIDER", "haversine")
	avgSpeed := config.GetFloat("AVG_SPEED_KMH", 50)
	solveBudget := config.GetDuration("SOLVE_BUDGET", 30*time.Second)

	db, err := openDB(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := repositories.InitSchema(db); err != nil {
		log.Fatal(err)
	}

	// Leg cache: Redis when configured, local SQLite otherwise. Both
	// survive restarts; Redis additionally shares legs across replicas.
	var legCache ports.LegCache
	if addr := config.Get("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		legCache = cache.NewRedisLegCache(rdb, config.GetDuration("LEG_CACHE_TTL", 24*time.Hour))
		log.Printf("leg cache backend=redis addr=%s", addr)
	} else {
		legCache = cache.NewSqliteLegCache(db)
		log.Printf("leg cache backend=sqlite path=%s", dbPath)
	}

	provider, err := distance.NewProvider(distance.Config{
		Provider:    providerName,
		APIKey:      config.Get("MATRIX_API_KEY", ""),
		AvgSpeedKmh: avgSpeed,
		Cache:       legCache,
	})
	if err != nil {
		log.Fatal(err)
	}

	// External providers degrade to the great-circle estimate instead
	// of failing the whole optimization.
	if providerName != "haversine" {
		provider = distance.NewFallbackProvider(provider, distance.NewHaversineProvider(avgSpeed))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appM := metrics.NewMetrics(reg)

	eng := engine.NewOptimizer(provider, appM, solveBudget)
	repo := repositories.NewSqlitePlanRepository(db)
	router := api.NewRouter(eng, repo, appM, reg)

	// Timeouts are tuned for worst-case solves (30 s budget per group
	// plus external matrix latency).
	log.Printf("Server listening addr=:%s provider=%s", port, providerName)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return db, nil
}
