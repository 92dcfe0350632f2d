package middleware

import (
	"net/http"
	"strings"

	"faceclock-http-service/internal/domain/services"
	"faceclock-http-service/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var jwtService services.InterfaceJWTService

// InitAuthMiddleware 初始化认证中间件
func InitAuthMiddleware(cfg *config.Config, db *gorm.DB) {
	jwtService = services.NewJWTService(cfg, db)
}

// extractToken 从授权头中提取token
func extractToken(authHeader string) string {
	// 检查并移除 "Bearer " 前缀
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// abortUnauthorized 以401中断请求
func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    401,
		"message": message,
		"data":    nil,
	})
	c.Abort()
}

// authenticate 校验令牌并把声明写入上下文，roles 为空时不限制角色
func authenticate(c *gin.Context, roles ...string) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortUnauthorized(c, "Authorization header is required")
		return false
	}

	tokenString := extractToken(authHeader)
	claims, err := jwtService.ExtractClaims(tokenString)
	if err != nil {
		abortUnauthorized(c, "Invalid or expired token")
		return false
	}

	if len(roles) > 0 {
		allowed := false
		for _, role := range roles {
			if claims.Role == role {
				allowed = true
				break
			}
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "Insufficient permissions",
				"data":    nil,
			})
			c.Abort()
			return false
		}
	}

	c.Set("userID", claims.UserID)
	c.Set("role", claims.Role)
	c.Set("claims", claims)
	return true
}

// AuthenticateAdmin 验证管理员权限
func AuthenticateAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, "admin") {
			c.Next()
		}
	}
}

// AuthenticateEmployee 验证员工权限，管理员也可以访问员工接口
func AuthenticateEmployee() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c, "employee", "admin") {
			c.Next()
		}
	}
}

// Authentication 通用的认证中间件，只要求令牌有效
func Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authenticate(c) {
			c.Next()
		}
	}
}

// CurrentUserID 从上下文读取当前登录用户ID
func CurrentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
