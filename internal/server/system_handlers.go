package server

import (
	"net/http"

	"github.com/tbordasch/befriends/internal/api"
	"github.com/tbordasch/befriends/internal/metrics"
	"github.com/tbordasch/befriends/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// @Summary      Notification queue status
// @Tags         system
// @Produce      json
// @Success      200 {object} api.QueueStatusResponse
// @Router       /queue-status [get]
func QueueStatus(notifier *notify.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		length := notifier.QueueLength(c.Request.Context())
		metrics.NotificationQueueLength.Set(float64(length))
		c.JSON(http.StatusOK, api.QueueStatusResponse{Queued: length})
	}
}
