package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vthunder/dayplan/internal/config"
	"github.com/vthunder/dayplan/internal/engine"
	"github.com/vthunder/dayplan/internal/mcp"
	"github.com/vthunder/dayplan/internal/mcp/tools"
	"github.com/vthunder/dayplan/internal/store"
)

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[dayplan-mcp] ")

	configPath := flag.String("config", "dayplan.yaml", "path to config file")
	flag.Parse()

	// Load .env file if present (don't error if missing)
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
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

	server := mcp.NewServer()
	tools.RegisterAll(server, &tools.Dependencies{Engine: eng, Store: st})

	if err := server.Run(); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}
}
