package routes

import (
	"regexp"
	"time"

	_ "faceclock-http-service/docs"
	"faceclock-http-service/internal/app/controllers"
	"faceclock-http-service/internal/app/middleware"
	"faceclock-http-service/internal/domain/services/container"
	"faceclock-http-service/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// registerValidators 注册自定义参数校验规则
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("phone_cn", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	}
}

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})

	registerValidators()

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg, db)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册员工路由
	registerEmployeeRoutes(api, container)
	// 注册管理端路由
	registerAdminRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加IP限流中间件 - 每秒允许10个请求，最多突发20个请求
	api.Use(middleware.IPRateLimiter(10, 20))

	// 健康检查路由
	api.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	api.GET("/health", controllers.HandleHealthFunc(container, "ping")) // 兼容Docker健康检查的路由

	// 健康状态路由组
	healthGroup := api.Group("/health")
	healthGroup.GET("/status", controllers.HandleHealthFunc(container, "status"))

	// 认证路由
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))
}

// registerEmployeeRoutes 注册员工自助路由
func registerEmployeeRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	attendance := api.Group("/attendance")
	attendance.Use(middleware.AuthenticateEmployee())

	// 打卡链路走验证与活体检测，按IP和路径组合限流压住单客户端的重试
	punchGroup := attendance.Group("/")
	punchGroup.Use(middleware.CombinedRateLimiter(2, 5))
	punchGroup.POST("/check-in", controllers.HandleAttendanceFunc(container, "checkIn"))
	punchGroup.POST("/check-out", controllers.HandleAttendanceFunc(container, "checkOut"))

	// 查询路由。当日状态必须实时，不挂缓存
	attendance.GET("/today", controllers.HandleAttendanceFunc(container, "today"))
	attendance.GET("/records", controllers.HandleAttendanceFunc(container, "myRecords"))
}

// registerAdminRoutes 注册需要管理员权限的路由
func registerAdminRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	auth := api.Group("/")
	auth.Use(middleware.AuthenticateAdmin())

	// 添加通用限流中间件 - 每秒30个请求，最多突发50个请求
	auth.Use(middleware.IPRateLimiter(30, 50))

	// 员工路由
	employeeGroup := auth.Group("/employees")
	{
		employeeGroup.GET("", middleware.CacheMiddleware(1*time.Minute), controllers.HandleEmployeeFunc(container, "getEmployees"))
		employeeGroup.GET("/:id", controllers.HandleEmployeeFunc(container, "getEmployee"))
		employeeGroup.POST("", controllers.HandleEmployeeFunc(container, "createEmployee"))
		employeeGroup.PUT("/:id", controllers.HandleEmployeeFunc(container, "updateEmployee"))
		employeeGroup.DELETE("/:id", controllers.HandleEmployeeFunc(container, "deactivateEmployee"))

		// 人脸档案路由
		employeeGroup.POST("/:id/biometric", controllers.HandleEnrollmentFunc(container, "enroll"))
		employeeGroup.POST("/:id/biometric/images", controllers.HandleEnrollmentFunc(container, "enrollFromImages"))
		employeeGroup.GET("/:id/biometric", controllers.HandleEnrollmentFunc(container, "getProfile"))
		employeeGroup.DELETE("/:id/biometric", controllers.HandleEnrollmentFunc(container, "retire"))
	}

	// 管理端考勤路由
	adminAttendance := auth.Group("/admin/attendance")
	adminAttendance.GET("", controllers.HandleAttendanceFunc(container, "listRecords"))
	adminAttendance.POST("/manual", controllers.HandleAttendanceFunc(container, "createManualRecord"))
}
