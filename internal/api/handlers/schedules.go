package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/surecharge/internal/models"
)

// ListSchedules 获取定时规则，按优先级从高到低
func (h *Handler) ListSchedules(c *gin.Context) {
	schedules, err := h.schedules.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "schedules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": schedules})
}

// CreateSchedule 新建定时规则
func (h *Handler) CreateSchedule(c *gin.Context) {
	var req models.Schedule
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule body"})
		return
	}
	req.ID = 0

	sc, err := h.schedules.Save(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "schedule")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": sc})
}

// UpdateSchedule 修改定时规则
func (h *Handler) UpdateSchedule(c *gin.Context) {
	id, ok := parseID(c, "schedule")
	if !ok {
		return
	}

	var req models.Schedule
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule body"})
		return
	}
	req.ID = id

	sc, err := h.schedules.Save(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "schedule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sc})
}

// DeleteSchedule 删除定时规则
func (h *Handler) DeleteSchedule(c *gin.Context) {
	id, ok := parseID(c, "schedule")
	if !ok {
		return
	}

	if err := h.schedules.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "schedule")
		return
	}
	c.Status(http.StatusNoContent)
}

// SetScheduleEnabled 启用或停用定时规则
func (h *Handler) SetScheduleEnabled(c *gin.Context) {
	id, ok := parseID(c, "schedule")
	if !ok {
		return
	}

	var req enabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing enabled flag"})
		return
	}

	sc, err := h.schedules.SetEnabled(c.Request.Context(), id, *req.Enabled)
	if err != nil {
		h.respondError(c, err, "schedule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sc})
}
