package healthcheckController

import (
	"log/slog"

	"github.com/admin/tg-bots/horoscope-bot/internal/ports/persistence"
	"github.com/gin-gonic/gin"
)

type HealthCheckController struct {
	db  persistence.Persistence
	log *slog.Logger
}

func New(db persistence.Persistence, log *slog.Logger) *HealthCheckController {
	return &HealthCheckController{
		db:  db,
		log: log,
	}
}

func (c *HealthCheckController) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", c.health)
	r.GET("/ready", c.ready)
}

// health базовая проверка (всегда возвращает 200)
func (c *HealthCheckController) health(ctx *gin.Context) {
	ctx.JSON(200, gin.H{
		"status":  "ok",
		"service": "horoscope-bot",
	})
}

// ready проверка готовности (лёгкий запрос к БД)
func (c *HealthCheckController) ready(ctx *gin.Context) {
	var one int
	if err := c.db.Get(ctx.Request.Context(), &one, "SELECT 1"); err != nil {
		c.log.Error("Database not ready", "error", err)
		ctx.JSON(503, gin.H{
			"status": "not ready",
			"error":  "database unavailable",
		})
		return
	}

	ctx.JSON(200, gin.H{
		"status": "ready",
	})
}
