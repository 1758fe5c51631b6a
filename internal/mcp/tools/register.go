package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vthunder/dayplan/internal/mcp"
	"github.com/vthunder/dayplan/internal/schedule"
)

// RegisterAll registers all scheduler tools with the given server
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	registerScheduleTools(server, deps)
	registerAlertTools(server, deps)
	registerTemplateTools(server, deps)
}

func registerScheduleTools(server *mcp.Server, deps *Dependencies) {
	server.RegisterTool("get_today_schedule", mcp.ToolDef{
		Description: "Get today's schedule: the ordered list of task instances with their planned times and live status. Materializes any newly enabled templates and sweeps stale alerts first.",
	}, func(args map[string]any) (string, error) {
		items, err := deps.Engine.GetTodaySchedule()
		if err != nil {
			return "", err
		}
		return marshal(items)
	})

	server.RegisterTool("create_adhoc_task", mcp.ToolDef{
		Description: "Add a one-off task to today's schedule. It will not recur on future days.",
		Properties: map[string]mcp.PropDef{
			"name":             {Type: "string", Description: "Task name"},
			"category":         {Type: "string", Description: "Category label. Optional, defaults to misc."},
			"duration_minutes": {Type: "number", Description: "How long the task block is, in minutes"},
			"start_time":       {Type: "string", Description: "Planned start as HH:MM"},
		},
		Required: []string{"name", "duration_minutes", "start_time"},
	}, func(args map[string]any) (string, error) {
		name, _ := args["name"].(string)
		category, _ := args["category"].(string)
		minutes, err := intArg(args, "duration_minutes")
		if err != nil {
			return "", err
		}
		startStr, _ := args["start_time"].(string)
		start, err := schedule.ParseClock(startStr)
		if err != nil {
			return "", fmt.Errorf("invalid start_time: %w", err)
		}

		item, err := deps.Engine.CreateAdHocToday(name, category, minutes, start)
		if err != nil {
			return "", err
		}
		return marshal(item)
	})

	server.RegisterTool("update_instance", mcp.ToolDef{
		Description: "Reschedule a task instance and/or set its status. Rescheduling moves the start time and keeps the duration.",
		Properties: map[string]mcp.PropDef{
			"instance_id":        {Type: "number", Description: "The schedule instance ID"},
			"planned_start_time": {Type: "string", Description: "New start as HH:MM. Optional."},
			"status":             {Type: "string", Description: "New status: pending, active, paused, or cancelled. Optional."},
		},
		Required: []string{"instance_id"},
	}, func(args map[string]any) (string, error) {
		id, err := idArg(args)
		if err != nil {
			return "", err
		}

		var newStart *time.Duration
		if v, ok := args["planned_start_time"].(string); ok && v != "" {
			offset, err := schedule.ParseClock(v)
			if err != nil {
				return "", fmt.Errorf("invalid planned_start_time: %w", err)
			}
			newStart = &offset
		}
		var newStatus *schedule.Status
		if v, ok := args["status"].(string); ok && v != "" {
			st := schedule.Status(v)
			newStatus = &st
		}

		item, err := deps.Engine.UpdateInstance(id, newStart, newStatus)
		if err != nil {
			return "", err
		}
		return marshal(item)
	})
}

func registerAlertTools(server *mcp.Server, deps *Dependencies) {
	server.RegisterTool("start_interaction", mcp.ToolDef{
		Description: "Record that an alert started showing for a task instance.",
		Properties: map[string]mcp.PropDef{
			"instance_id": {Type: "number", Description: "The schedule instance ID"},
			"alert_type":  {Type: "string", Description: "Alert type tag. Optional, defaults to task_start."},
		},
		Required: []string{"instance_id"},
	}, func(args map[string]any) (string, error) {
		id, err := idArg(args)
		if err != nil {
			return "", err
		}
		alertType, _ := args["alert_type"].(string)
		if err := deps.Engine.StartInteraction(id, alertType); err != nil {
			return "", err
		}
		return "Interaction started", nil
	})

	server.RegisterTool("acknowledge_alert", mcp.ToolDef{
		Description: "Acknowledge the current alert for a task instance.",
		Properties: map[string]mcp.PropDef{
			"instance_id": {Type: "number", Description: "The schedule instance ID"},
			"stage":       {Type: "string", Description: "Escalation stage the user responded at: visual or alarm. Optional, defaults to visual."},
		},
		Required: []string{"instance_id"},
	}, func(args map[string]any) (string, error) {
		id, err := idArg(args)
		if err != nil {
			return "", err
		}
		stage, _ := args["stage"].(string)
		item, err := deps.Engine.Acknowledge(id, schedule.ResponseStage(stage))
		if err != nil {
			return "", err
		}
		return marshal(item)
	})

	server.RegisterTool("snooze_alert", mcp.ToolDef{
		Description: "Snooze a task instance: extend its planned end by the given minutes and resolve its current alert.",
		Properties: map[string]mcp.PropDef{
			"instance_id": {Type: "number", Description: "The schedule instance ID"},
			"minutes":     {Type: "number", Description: "How many minutes to extend by. Must be positive."},
			"stage":       {Type: "string", Description: "Escalation stage the user responded at: visual or alarm. Optional."},
		},
		Required: []string{"instance_id", "minutes"},
	}, func(args map[string]any) (string, error) {
		id, err := idArg(args)
		if err != nil {
			return "", err
		}
		minutes, err := intArg(args, "minutes")
		if err != nil {
			return "", err
		}
		stage, _ := args["stage"].(string)
		item, err := deps.Engine.Snooze(id, minutes, schedule.ResponseStage(stage))
		if err != nil {
			return "", err
		}
		return marshal(item)
	})

	server.RegisterTool("interaction_history", mcp.ToolDef{
		Description: "List recent alert interactions, newest first, with how each one was resolved.",
		Properties: map[string]mcp.PropDef{
			"limit": {Type: "number", Description: "Max rows to return. Optional, defaults to 50, capped at 200."},
		},
	}, func(args map[string]any) (string, error) {
		limit := 50
		if _, ok := args["limit"]; ok {
			n, err := intArg(args, "limit")
			if err != nil {
				return "", err
			}
			limit = n
		}
		rows, err := deps.Engine.RecentInteractions(limit)
		if err != nil {
			return "", err
		}
		return marshal(rows)
	})
}

func registerTemplateTools(server *mcp.Server, deps *Dependencies) {
	server.RegisterTool("list_task_templates", mcp.ToolDef{
		Description: "List the enabled recurring task templates that feed today's schedule.",
	}, func(args map[string]any) (string, error) {
		templates, err := deps.Store.ListTemplates(true)
		if err != nil {
			return "", err
		}
		return marshal(templates)
	})
}

// idArg extracts the instance_id argument (JSON numbers arrive as float64)
func idArg(args map[string]any) (int64, error) {
	v, ok := args["instance_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("instance_id is required")
	}
	return int64(v), nil
}

func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s is required and must be a number", key)
	}
	return int(v), nil
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
