package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/surecharge/internal/models"
)

// GetRules 获取基础规则
func (h *Handler) GetRules(c *gin.Context) {
	rules, err := h.rules.Rules(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "rules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rules})
}

// SetRules 替换基础规则
func (h *Handler) SetRules(c *gin.Context) {
	var req models.BatteryRules
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rules body"})
		return
	}

	if err := h.rules.SetRules(c.Request.Context(), req); err != nil {
		h.respondError(c, err, "rules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": req})
}

// GetEffectiveRules 获取当前生效规则
func (h *Handler) GetEffectiveRules(c *gin.Context) {
	eff, err := h.rules.Effective(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "effective rules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": eff})
}

// GetAuto 获取自动调优设置与调度状态
func (h *Handler) GetAuto(c *gin.Context) {
	settings, err := h.rules.AutoSettings(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "auto settings")
		return
	}

	resp := gin.H{
		"settings":  settings,
		"scheduled": h.autoTune.Scheduled(),
	}
	if last, runErr := h.autoTune.LastRun(); !last.IsZero() {
		resp["last_run"] = last
		if runErr != nil {
			resp["last_error"] = runErr.Error()
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// SetAutoEnabled 开启或关闭自动调优
func (h *Handler) SetAutoEnabled(c *gin.Context) {
	var req enabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing enabled flag"})
		return
	}

	settings, err := h.rules.SetAutoEnabled(c.Request.Context(), *req.Enabled)
	if err != nil {
		h.respondError(c, err, "auto settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

// RunAutoTune 立即执行一次自动调优
func (h *Handler) RunAutoTune(c *gin.Context) {
	result, err := h.autoTune.RunNow(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "auto-tune")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
