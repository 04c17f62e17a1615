package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/surecharge/internal/models"
)

type batteryRequest struct {
	Percent    *int  `json:"percent" binding:"required"`
	IsCharging *bool `json:"is_charging" binding:"required"`
}

// GetBattery 获取最近一次电量读数
func (h *Handler) GetBattery(c *gin.Context) {
	snap, ok := h.monitor.Latest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No battery reading yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}

// PostBattery 上报电量读数，返回触发的提醒
func (h *Handler) PostBattery(c *gin.Context) {
	var req batteryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid battery reading"})
		return
	}

	alerts, err := h.monitor.HandleBatteryUpdate(c.Request.Context(), models.BatterySnapshot{
		Percent:    *req.Percent,
		IsCharging: *req.IsCharging,
	})
	if err != nil {
		h.respondError(c, err, "battery reading")
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"alerts": alerts}})
}

// GetSnooze 获取免打扰状态
func (h *Handler) GetSnooze(c *gin.Context) {
	status, err := h.snooze.Status(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "snooze")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// Snooze 免打扰指定分钟数
func (h *Handler) Snooze(c *gin.Context) {
	var req struct {
		Minutes int `json:"minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid snooze body"})
		return
	}

	status, err := h.snooze.SnoozeFor(c.Request.Context(), req.Minutes)
	if err != nil {
		h.respondError(c, err, "snooze")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// ClearSnooze 取消免打扰
func (h *Handler) ClearSnooze(c *gin.Context) {
	if err := h.snooze.Clear(c.Request.Context()); err != nil {
		h.respondError(c, err, "snooze")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetFeedback 获取提醒反馈计数
func (h *Handler) GetFeedback(c *gin.Context) {
	fb, err := h.snooze.Feedback(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": fb})
}

// RecordFeedback 记录提醒反馈动作
func (h *Handler) RecordFeedback(c *gin.Context) {
	fb, status, err := h.snooze.RecordFeedback(c.Request.Context(), c.Param("kind"))
	if err != nil {
		h.respondError(c, err, "feedback")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"feedback": fb,
		"snooze":   status,
	}})
}
