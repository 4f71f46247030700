package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/horoscope-bot/internal/domain"
	oracleUsecase "github.com/admin/tg-bots/horoscope-bot/internal/usecases/oracle"
	"github.com/gin-gonic/gin"
)

type Controller struct {
	OracleService *oracleUsecase.Service
	Log           *slog.Logger
}

func New(
	oracleService *oracleUsecase.Service,
	log *slog.Logger,
) *Controller {
	return &Controller{
		OracleService: oracleService,
		Log:           log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	admin := router.Group("/admin")
	{
		admin.GET("/users", c.listUsers)
		admin.GET("/users/:tg_id/activity", c.userActivity)
		admin.GET("/stats", c.stats)
		admin.POST("/broadcast/recipients", c.broadcastRecipients)
		admin.POST("/subscriptions/expire", c.expireSubscriptions)
		admin.POST("/subscriptions/extend", c.extendPremium)
		admin.POST("/cleanup", c.cleanup)
	}
}

// respondError переводит доменные ошибки в HTTP статусы
func (c *Controller) respondError(ctx *gin.Context, err error) {
	switch {
	case domain.IsValidationError(err):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case domain.IsBusinessError(err):
		// Сбой уже залогирован на нижних слоях
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.Log.Error("admin request failed", "error", err, "path", ctx.FullPath())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// ListUsersResponse страница пользователей
type ListUsersResponse struct {
	Users    []domain.User `json:"users"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// listUsers страница пользователей под фильтром
func (c *Controller) listUsers(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	filter := domain.UserFilter(ctx.DefaultQuery("filter", "all"))

	users, total, err := c.OracleService.ListUsersPaginated(ctx.Request.Context(), page, pageSize, filter)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, ListUsersResponse{
		Users:    users,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// userActivity счётчики одного пользователя
func (c *Controller) userActivity(ctx *gin.Context) {
	telegramID, err := strconv.ParseInt(ctx.Param("tg_id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid tg_id: %v", err)})
		return
	}

	activity, err := c.OracleService.UserActivity(ctx.Request.Context(), telegramID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, activity)
}

// stats сводная статистика сервиса
func (c *Controller) stats(ctx *gin.Context) {
	stats, err := c.OracleService.AggregateStatistics(ctx.Request.Context())
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// BroadcastRecipientsRequest критерии отбора получателей рассылки
type BroadcastRecipientsRequest struct {
	NotificationsOnly bool `json:"notifications_only"`
	ActiveWithinDays  int  `json:"active_within_days"`
}

// broadcastRecipients возвращает telegram id получателей рассылки
func (c *Controller) broadcastRecipients(ctx *gin.Context) {
	var req BroadcastRecipientsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	filter := domain.BroadcastFilter{
		NotificationsOnly: req.NotificationsOnly,
		ActiveWithin:      time.Duration(req.ActiveWithinDays) * 24 * time.Hour,
	}
	telegramIDs, err := c.OracleService.ListUsersForBroadcast(ctx.Request.Context(), filter)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"telegram_ids": telegramIDs,
		"count":        len(telegramIDs),
	})
}

// expireSubscriptions помечает просроченные premium подписки
func (c *Controller) expireSubscriptions(ctx *gin.Context) {
	count, err := c.OracleService.ExpireSubscriptions(ctx.Request.Context())
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"expired": count})
}

// ExtendPremiumRequest запрос на массовое продление premium
type ExtendPremiumRequest struct {
	TelegramIDs []int64 `json:"telegram_ids" binding:"required"`
	Days        int     `json:"days" binding:"required"`
}

// extendPremium массово продлевает premium подписки
func (c *Controller) extendPremium(ctx *gin.Context) {
	var req ExtendPremiumRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	affected, err := c.OracleService.ExtendPremium(ctx.Request.Context(), req.TelegramIDs, req.Days)
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"extended": affected})
}

// cleanup удаляет прогнозы и отчёты старше срока хранения
func (c *Controller) cleanup(ctx *gin.Context) {
	result, err := c.OracleService.CleanupExpired(ctx.Request.Context())
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
