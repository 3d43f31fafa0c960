package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetpunch/attendance-backend/internal/attendance"
	"github.com/fleetpunch/attendance-backend/internal/auth"
	"github.com/fleetpunch/attendance-backend/internal/config"
	"github.com/fleetpunch/attendance-backend/internal/db"
	"github.com/fleetpunch/attendance-backend/internal/middleware"
	"github.com/fleetpunch/attendance-backend/internal/reconcile"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config: ", err)
	}

	d := db.Connect(cfg.DatabaseURL, cfg.Schema, cfg.SQLLogLevel)
	auth.Init(d)
	attendance.Init(d)

	dir := attendance.NewGormDirectory(d)
	svc := attendance.NewService(d, dir, cfg.Policy)
	runner := reconcile.NewRunner(dir, svc)
	tokens := auth.TokenInfo{DB: d}
	limiter := middleware.NewRateLimiter(cfg.Policy.PingRate, cfg.Policy.PingBurst)

	sched, err := reconcile.StartCron(runner, cfg.Policy.ReconcileCron, cfg.Policy.Location())
	if err != nil {
		log.Fatal("Failed to schedule reconciliation: ", err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.Policy.AllowedOrigins))
	r.Get("/", RootHandler)

	r.Mount("/attendance", attendance.SetupRoutes(svc, tokens, limiter))
	r.Mount("/admin", reconcile.SetupRoutes(runner, tokens))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port :%s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	<-sched.Stop().Done()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
