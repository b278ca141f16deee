package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MateoHeras77/ShiftTradeAV/internal/api/middleware"
	"github.com/MateoHeras77/ShiftTradeAV/pkg/response"
)

// MustGetSupervisorName 从 Gin 上下文中安全提取主管姓名。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetSupervisorName(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxSupervisorName)
	if !exists {
		response.Fail(c, response.CodeUnauthenticated, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Fail(c, response.CodeUnauthenticated, "未认证")
		return "", false
	}
	return s, true
}

// sessionToken 当前会话的 JTI 与过期时间；缺失时返回零值
func sessionToken(c *gin.Context) (string, time.Time) {
	jti := c.GetString(middleware.CtxJTI)
	exp, _ := c.Get(middleware.CtxExpiresAt)
	t, _ := exp.(time.Time)
	return jti, t
}
