// Package handlers implements the gin.HandlerFunc endpoints of the msgbox
// introspection API.
//
//	@title			msgbox introspection API
//	@version		1.0
//	@description	Read-only introspection for a running msgbox engine: health, counters, and live connections.
//	@contact.name	msgbox maintainers
//	@contact.url	https://github.com/jroosing/msgbox
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//	@host			localhost:8080
//	@BasePath		/api/v1
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package handlers

import (
	"log/slog"
	"time"

	"github.com/jroosing/msgbox/internal/config"
	"github.com/jroosing/msgbox/internal/engine"
)

// Handler holds the dependencies shared by every introspection endpoint.
type Handler struct {
	engine    *engine.Engine
	cfg       *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// New builds a Handler bound to a running engine.
func New(eng *engine.Engine, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		engine:    eng,
		cfg:       cfg,
		logger:    logger,
		startTime: time.Now(),
	}
}
