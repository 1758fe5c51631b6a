// dayplan-state prints a snapshot of today's timeline and recent alert
// interactions for debugging, without going through the HTTP API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/vthunder/dayplan/internal/config"
	"github.com/vthunder/dayplan/internal/engine"
	"github.com/vthunder/dayplan/internal/schedule"
	"github.com/vthunder/dayplan/internal/store"
)

func main() {
	configPath := flag.String("config", "dayplan.yaml", "path to config file")
	history := flag.Int("history", 0, "also show the N most recent interactions")
	flag.Parse()

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

	items, err := eng.GetTodaySchedule()
	if err != nil {
		log.Fatalf("Failed to read today's schedule: %v", err)
	}

	fmt.Printf("Schedule for %s\n\n", time.Now().Format("Monday, 2006-01-02"))
	if len(items) == 0 {
		fmt.Println("  (no instances)")
	} else {
		table := uitable.New()
		table.AddRow("ID", "TASK", "CATEGORY", "START", "END", "STATUS", "REMAINING")
		for _, item := range items {
			remaining := ""
			if item.RemainingSeconds != nil {
				remaining = (time.Duration(*item.RemainingSeconds) * time.Second).String()
			}
			name := item.Name
			if item.IsAdhoc {
				name += " (ad hoc)"
			}
			table.AddRow(item.InstanceID, name, item.Category,
				item.PlannedStart, item.PlannedEnd, statusLabel(item.Status), remaining)
		}
		fmt.Println(table)
	}

	if *history > 0 {
		rows, err := eng.RecentInteractions(*history)
		if err != nil {
			log.Fatalf("Failed to read interaction history: %v", err)
		}
		fmt.Printf("\nRecent interactions\n\n")
		table := uitable.New()
		table.AddRow("ID", "TASK", "ALERT", "STARTED", "RESPONSE", "STAGE")
		for _, row := range rows {
			table.AddRow(row.ID, row.TaskName, row.AlertType,
				row.StartedAt.Format("15:04:05"),
				string(row.ResponseType), string(row.ResponseStage))
		}
		fmt.Println(table)
	}

	os.Exit(0)
}

func statusLabel(s schedule.Status) string {
	switch s {
	case schedule.StatusActive:
		return color.GreenString(string(s))
	case schedule.StatusPaused:
		return color.YellowString(string(s))
	case schedule.StatusCancelled:
		return color.RedString(string(s))
	default:
		return string(s)
	}
}
