package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/surecharge/internal/autotune"
	"github.com/langchou/surecharge/internal/repository"
	"github.com/langchou/surecharge/internal/service"
	"github.com/langchou/surecharge/pkg/ws"
)

// AutoTuneScheduler 自动调优调度器
type AutoTuneScheduler interface {
	RunNow(ctx context.Context) (*autotune.RunResult, error)
	Scheduled() bool
	LastRun() (time.Time, error)
}

// Services 处理器依赖的服务
type Services struct {
	Rules     *service.RulesService
	Profiles  *service.ProfileService
	Schedules *service.ScheduleService
	History   *service.HistoryService
	Snooze    *service.SnoozeService
	Monitor   *service.MonitorService
	AutoTune  AutoTuneScheduler
}

// Handler HTTP 处理器
type Handler struct {
	logger    *zap.Logger
	rules     *service.RulesService
	profiles  *service.ProfileService
	schedules *service.ScheduleService
	history   *service.HistoryService
	snooze    *service.SnoozeService
	monitor   *service.MonitorService
	autoTune  AutoTuneScheduler
	wsHub     *ws.Hub
	upgrader  websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(logger *zap.Logger, svc Services, wsHub *ws.Hub) *Handler {
	return &Handler{
		logger:    logger,
		rules:     svc.Rules,
		profiles:  svc.Profiles,
		schedules: svc.Schedules,
		history:   svc.History,
		snooze:    svc.Snooze,
		monitor:   svc.Monitor,
		autoTune:  svc.AutoTune,
		wsHub:     wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 本地服务，允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// 规则
		api.GET("/rules", h.GetRules)
		api.PUT("/rules", h.SetRules)
		api.GET("/rules/effective", h.GetEffectiveRules)

		// 档案
		api.GET("/profiles", h.ListProfiles)
		api.POST("/profiles", h.CreateProfile)
		api.GET("/profiles/active", h.GetActiveProfile)
		api.POST("/profiles/cycle", h.CycleProfile)
		api.POST("/profiles/from-current", h.CreateProfileFromCurrent)
		api.PUT("/profiles/:id", h.UpdateProfile)
		api.DELETE("/profiles/:id", h.DeleteProfile)
		api.POST("/profiles/:id/apply", h.ApplyProfile)

		// 定时规则
		api.GET("/schedules", h.ListSchedules)
		api.POST("/schedules", h.CreateSchedule)
		api.PUT("/schedules/:id", h.UpdateSchedule)
		api.DELETE("/schedules/:id", h.DeleteSchedule)
		api.POST("/schedules/:id/enabled", h.SetScheduleEnabled)

		// 历史
		api.GET("/history", h.GetHistory)
		api.GET("/history/health", h.GetHealth)
		api.PUT("/history/settings", h.SetHistorySettings)
		api.DELETE("/sessions", h.PruneSessions)

		// 自动调优
		api.GET("/auto", h.GetAuto)
		api.PUT("/auto/enabled", h.SetAutoEnabled)
		api.POST("/auto/run", h.RunAutoTune)

		// 电池
		api.GET("/battery", h.GetBattery)
		api.POST("/battery", h.PostBattery)

		// 免打扰与反馈
		api.GET("/snooze", h.GetSnooze)
		api.POST("/snooze", h.Snooze)
		api.DELETE("/snooze", h.ClearSnooze)
		api.GET("/feedback", h.GetFeedback)
		api.POST("/feedback/:kind", h.RecordFeedback)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// InitData 新连接的 WebSocket 客户端收到的初始数据
func (h *Handler) InitData() *ws.InitData {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data := &ws.InitData{}
	if rules, err := h.rules.Rules(ctx); err == nil {
		data.Rules = rules
	} else {
		h.logger.Warn("Failed to load rules for init data", zap.Error(err))
	}
	if eff, err := h.rules.Effective(ctx); err == nil {
		data.Effective = eff
	} else {
		h.logger.Warn("Failed to load effective rules for init data", zap.Error(err))
	}
	if auto, err := h.rules.AutoSettings(ctx); err == nil {
		data.Auto = auto
	}
	if snap, ok := h.monitor.Latest(); ok {
		data.Battery = snap
	}
	return data
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	if !client.Register() {
		conn.Close()
		return
	}

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}

// respondError 按错误类型返回状态码，未知错误记录日志并返回 500
func (h *Handler) respondError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
	case errors.Is(err, service.ErrNoProfiles):
		c.JSON(http.StatusNotFound, gin.H{"error": "No profiles"})
	case errors.Is(err, autotune.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Auto-tune already running"})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process " + what})
	}
}

func parseID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + what + " ID"})
		return 0, false
	}
	return id, true
}

type enabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}
