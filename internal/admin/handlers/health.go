package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/jroosing/msgbox/internal/admin/models"
)

// Health godoc
//
//	@Summary	Liveness check
//	@Produce	json
//	@Success	200	{object}	models.StatusResponse
//	@Router		/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
//
//	@Summary	Engine counters and host resource usage
//	@Produce	json
//	@Success	200	{object}	models.StatsResponse
//	@Router		/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	snap := h.engine.Stats()

	var memPercent, cpuPercent float64
	if vm, err := mem.VirtualMemory(); err == nil {
		memPercent = vm.UsedPercent
	}
	if percents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}

	c.JSON(http.StatusOK, models.StatsResponse{
		ConnectionsOpened: int64(snap.ConnectionsOpened),
		ConnectionsClosed: int64(snap.ConnectionsClosed),
		ActiveConnections: snap.ActiveConnections,
		BytesSent:         int64(snap.BytesSent),
		BytesReceived:     int64(snap.BytesReceived),
		EventsDelivered:   int64(snap.EventsDelivered),
		PollCalls:         int64(snap.PollCalls),
		Errors:            int64(snap.Errors),
		UptimeSeconds:     time.Since(h.startTime).Seconds(),
		MemoryUsedPercent: memPercent,
		CPUUsedPercent:    cpuPercent,
	})
}
