package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/vthunder/dayplan/internal/config"
	"github.com/vthunder/dayplan/internal/engine"
	"github.com/vthunder/dayplan/internal/store"
	"github.com/vthunder/dayplan/internal/web"
)

func main() {
	log.Println("dayplan - daily schedule engine")
	log.Println("===============================")

	configPath := flag.String("config", "dayplan.yaml", "path to config file")
	flag.Parse()

	// Load .env file (optional - won't error if missing)
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment variables")
	} else {
		log.Println("[config] Loaded .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.Open(cfg.StatePath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	eng := engine.New(st, engine.Options{
		DayStart:    cfg.DayStartOffset(),
		StaleCutoff: time.Duration(cfg.StaleCutoffMinutes) * time.Minute,
	})

	// Background refresh: keeps materialization top-up and the stale sweep
	// running even when no client is polling /schedule/today.
	c := cron.New()
	if _, err := c.AddFunc(cfg.RefreshCron, func() {
		if _, err := eng.GetTodaySchedule(); err != nil {
			log.Printf("[main] Refresh failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid refresh cron %q: %v", cfg.RefreshCron, err)
	}
	c.Start()

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: web.NewServer(eng, st).Handler(),
	}
	go func() {
		log.Printf("[main] Listening on http://%s", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	log.Println("[main] All subsystems started. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("[main] Shutting down...")

	c.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] HTTP shutdown: %v", err)
	}
	log.Println("[main] Goodbye")
}
