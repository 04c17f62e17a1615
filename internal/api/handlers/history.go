package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetHistory 获取历史窗口内的充电记录
func (h *Handler) GetHistory(c *gin.Context) {
	view, err := h.history.History(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

// GetHealth 获取电池健康度，记录不足时 data 为 null
func (h *Handler) GetHealth(c *gin.Context) {
	summary, err := h.history.Health(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "health")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// SetHistorySettings 设置历史窗口天数
func (h *Handler) SetHistorySettings(c *gin.Context) {
	var req struct {
		HistoryDays int `json:"history_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings body"})
		return
	}

	settings, err := h.history.SetHistoryDays(c.Request.Context(), req.HistoryDays)
	if err != nil {
		h.respondError(c, err, "history settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// PruneSessions 删除早于指定天数的充电记录
func (h *Handler) PruneSessions(c *gin.Context) {
	days, err := strconv.Atoi(c.Query("older_than_days"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid older_than_days"})
		return
	}

	deleted, err := h.history.Prune(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err, "sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": deleted}})
}
