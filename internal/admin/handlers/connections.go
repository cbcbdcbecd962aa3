package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jroosing/msgbox/internal/admin/models"
)

// Connections godoc
//
//	@Summary	List live connections
//	@Produce	json
//	@Success	200	{object}	models.ConnectionsResponse
//	@Router		/connections [get]
func (h *Handler) Connections(c *gin.Context) {
	conns := h.engine.Conns()

	out := make([]models.ConnectionResponse, 0, len(conns))
	for _, conn := range conns {
		role := "connected"
		if conn.IsListener() {
			role = "listener"
		}
		out = append(out, models.ConnectionResponse{
			TraceID:    conn.TraceID(),
			Transport:  conn.Transport().String(),
			Role:       role,
			LocalAddr:  conn.LocalAddr().String(),
			RemoteAddr: conn.RemoteAddr().String(),
		})
	}

	c.JSON(http.StatusOK, models.ConnectionsResponse{
		Count:       len(out),
		Connections: out,
	})
}
