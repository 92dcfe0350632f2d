package container

import (
	"context"
	"log"
	"sync"
	"time"

	"faceclock-http-service/internal/domain/services"
	"faceclock-http-service/internal/infrastructure/config"

	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config

	// 基础服务
	jwtService   services.InterfaceJWTService
	redisService *services.RedisService

	// 人脸服务客户端
	faceService services.InterfaceFaceService

	// 业务服务
	employeeService   services.InterfaceEmployeeService
	enrollmentService services.InterfaceEnrollmentService
	attendanceService services.InterfaceAttendanceService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config, c.db)
	c.redisService = services.NewRedisService(c.config)

	// 测试Redis连接，失败时降级为不使用缓存
	redisService := c.redisService
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.redisService.Client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		redisService = nil
	}

	// 初始化人脸服务客户端
	c.faceService = services.NewFaceService(c.config)

	// 初始化业务服务
	c.enrollmentService = services.NewEnrollmentService(c.db, c.config, c.faceService, redisService)
	c.employeeService = services.NewEmployeeService(c.db, c.config, c.enrollmentService)
	c.attendanceService = services.NewAttendanceService(c.db, c.config, c.enrollmentService)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "face":
		return c.faceService
	case "employee":
		return c.employeeService
	case "enrollment":
		return c.enrollmentService
	case "attendance":
		return c.attendanceService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
