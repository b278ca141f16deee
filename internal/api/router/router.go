package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MateoHeras77/ShiftTradeAV/config"
	"github.com/MateoHeras77/ShiftTradeAV/internal/api/handler"
	"github.com/MateoHeras77/ShiftTradeAV/internal/api/middleware"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/jwt"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/redis"
)

const (
	maxBodyBytes = 1 << 20 // 1 MiB

	// 公开接口按 IP 每分钟限流
	loginRateLimit  = 10
	submitRateLimit = 10
	acceptRateLimit = 30
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 与 db 可为 nil：前者关闭限流与黑名单，后者让健康检查只报告进程存活
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", healthHandler(db))

	loginLimit := middleware.RateLimit(rdb, "login", loginRateLimit, time.Minute, logger)
	submitLimit := middleware.RateLimit(rdb, "submit", submitRateLimit, time.Minute, logger)
	acceptLimit := middleware.RateLimit(rdb, "accept", acceptRateLimit, time.Minute, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 主管登录（无需认证）
		v1.POST("/auth/login", loginLimit, h.Auth.Login)

		// 班次表与员工名册供申请表单使用
		v1.GET("/flights", h.Flight.ListFlights)
		v1.GET("/employees", h.Employee.List)

		// 员工提交申请与接替人接受
		v1.POST("/shift-requests", submitLimit, h.ShiftRequest.Create)
		v1.GET("/shift-requests/accept", acceptLimit, h.ShiftRequest.PreviewAccept)
		v1.POST("/shift-requests/accept", acceptLimit, h.ShiftRequest.Accept)

		// 主管路由
		supervisor := v1.Group("")
		supervisor.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
		supervisor.Use(middleware.RoleAuth(jwt.RoleSupervisor))
		{
			supervisor.POST("/auth/logout", h.Auth.Logout)

			requests := supervisor.Group("/shift-requests")
			{
				requests.GET("", h.ShiftRequest.ListHistory)
				requests.GET("/pending", h.ShiftRequest.ListPending)
				requests.GET("/export", h.Export.ExportHistory)
				requests.GET("/:id", h.ShiftRequest.Get)
				requests.POST("/:id/approve", h.ShiftRequest.Approve)
				requests.POST("/:id/reject", h.ShiftRequest.Reject)
				requests.POST("/:id/resend-invite", h.ShiftRequest.ResendInvite)
			}

			employees := supervisor.Group("/employees")
			{
				employees.POST("", h.Employee.Create)
				employees.PUT("/:id", h.Employee.Update)
				employees.DELETE("/:id", h.Employee.Deactivate)
			}
		}
	}

	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	}
}
