package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"docuchat/internal/transport/http/response"
)

type HealthHandler struct {
	appName   string
	startedAt time.Time
}

func NewHealthHandler(appName string, startedAt time.Time) *HealthHandler {
	return &HealthHandler{appName: appName, startedAt: startedAt}
}

func (h *HealthHandler) Check(c *gin.Context) {
	response.OK(c, gin.H{
		"status":         "ok",
		"app":            h.appName,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}
