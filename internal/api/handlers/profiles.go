package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/surecharge/internal/models"
)

type profileRequest struct {
	Name string `json:"name"`
	models.BatteryRules
}

// ListProfiles 获取档案列表
func (h *Handler) ListProfiles(c *gin.Context) {
	profiles, err := h.profiles.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "profiles")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": profiles})
}

// CreateProfile 新建档案
func (h *Handler) CreateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile body"})
		return
	}

	p, err := h.profiles.Create(c.Request.Context(), req.Name, req.BatteryRules)
	if err != nil {
		h.respondError(c, err, "profile")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": p})
}

// CreateProfileFromCurrent 以当前基础规则新建档案
func (h *Handler) CreateProfileFromCurrent(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	// 请求体可以为空
	_ = c.ShouldBindJSON(&req)

	p, err := h.profiles.CreateFromCurrent(c.Request.Context(), req.Name)
	if err != nil {
		h.respondError(c, err, "profile")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": p})
}

// UpdateProfile 修改档案
func (h *Handler) UpdateProfile(c *gin.Context) {
	id, ok := parseID(c, "profile")
	if !ok {
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile body"})
		return
	}

	p, err := h.profiles.Update(c.Request.Context(), id, req.Name, req.BatteryRules)
	if err != nil {
		h.respondError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// DeleteProfile 删除档案
func (h *Handler) DeleteProfile(c *gin.Context) {
	id, ok := parseID(c, "profile")
	if !ok {
		return
	}

	if err := h.profiles.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "profile")
		return
	}
	c.Status(http.StatusNoContent)
}

// ApplyProfile 应用档案为基础规则
func (h *Handler) ApplyProfile(c *gin.Context) {
	id, ok := parseID(c, "profile")
	if !ok {
		return
	}

	p, err := h.profiles.Apply(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// CycleProfile 切换到下一个档案
func (h *Handler) CycleProfile(c *gin.Context) {
	p, err := h.profiles.Cycle(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// GetActiveProfile 获取与当前基础规则等效的档案，没有时 data 为 null
func (h *Handler) GetActiveProfile(c *gin.Context) {
	p, err := h.profiles.Active(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}
