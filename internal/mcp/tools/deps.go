// Package tools provides MCP tool registration with dependency injection.
package tools

import (
	"github.com/vthunder/dayplan/internal/engine"
	"github.com/vthunder/dayplan/internal/store"
)

// Dependencies holds the services the scheduler tools need
type Dependencies struct {
	Engine *engine.Engine
	Store  *store.Store
}
