package controllers

import (
	"faceclock-http-service/internal/domain/services"
	"faceclock-http-service/internal/domain/services/container"
	"faceclock-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Container *container.ServiceContainer
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{Container: container}
}

// HandleHealthFunc 返回一个处理健康检查请求的Gin处理函数
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHealthCheckController(container)

		switch method {
		case "ping":
			controller.Ping(ctx)
		case "status":
			controller.Status(ctx)
		default:
			controller.Ping(ctx)
		}
	}
}

// Ping 健康检查端点
// @Summary      存活检查
// @Tags         Health
// @Produce      json
// @Success      200  {object}  response.Response  "pong"
// @Router       /ping [get]
func (h *HealthCheckController) Ping(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// Status 依赖状态检查端点，逐个探测数据库、Redis与人脸服务。
// 任一依赖不可用不影响整体200返回，状态在响应体中区分。
// @Summary      依赖状态检查
// @Tags         Health
// @Produce      json
// @Success      200  {object}  response.Response  "各依赖的连通状态"
// @Router       /health/status [get]
func (h *HealthCheckController) Status(c *gin.Context) {
	status := gin.H{
		"database":     "ok",
		"redis":        "ok",
		"face_service": "ok",
	}

	if sqlDB, err := h.Container.GetDB().DB(); err != nil || sqlDB.Ping() != nil {
		status["database"] = "unavailable"
	}

	if redisService, ok := h.Container.GetService("redis").(*services.RedisService); ok && redisService != nil {
		if err := redisService.Ping(); err != nil {
			status["redis"] = "unavailable"
		}
	} else {
		status["redis"] = "unavailable"
	}

	if faceService, ok := h.Container.GetService("face").(services.InterfaceFaceService); ok && faceService != nil {
		if err := faceService.Health(c.Request.Context()); err != nil {
			status["face_service"] = "unavailable"
		}
	} else {
		status["face_service"] = "unavailable"
	}

	response.Success(c, status)
}
