// @title           FaceClock HTTP Service API
// @version         1.0
// @description     Face-verified attendance service with geofencing and liveness checks
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer: ` prefix
package main

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"faceclock-http-service/internal/app/routes"
	"faceclock-http-service/internal/domain/models"
	"faceclock-http-service/internal/domain/services"
	"faceclock-http-service/internal/infrastructure/config"
	"faceclock-http-service/internal/infrastructure/database"
	Logger "faceclock-http-service/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// 设置最大处理器数量，提高并发性能
	runtime.GOMAXPROCS(runtime.NumCPU())

	// 初始化日志配置
	if err := Logger.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}

	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		Logger.Warning("无法加载.env文件: %v", err)
		// 即使加载失败也继续执行，可能环境变量已经通过其他方式设置
	} else {
		Logger.Info("成功加载.env文件")
	}

	// 获取配置
	cfg := config.GetConfig()

	// 创建优化的数据库连接池
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		log.Fatalf("无法创建数据库连接池: %v", err)
	}
	db := pool.GetDB()

	// 根据配置执行不同的数据库操作
	if cfg.DBMigrationMode == "drop" {
		// 删除并重建表
		log.Println("警告: 在drop模式下运行，将删除并重建所有表")
		if err := dropAndRecreateTables(db); err != nil {
			log.Fatalf("删除并重建表失败: %v", err)
		}
	} else {
		// 默认AutoMigrate，只会添加新列和新表，不会删除或修改列
		log.Println("在标准模式下运行，将只添加新列和新表")
		if err := autoMigrate(db); err != nil {
			log.Fatalf("自动迁移失败: %v", err)
		}
	}

	// 确保系统中有管理员账户
	ensureAdminExists(db, cfg)

	// 启动日终缺勤结转任务
	scheduler, err := startAbsenceCloser(db, cfg)
	if err != nil {
		log.Fatalf("启动缺勤结转任务失败: %v", err)
	}
	defer scheduler.Stop()

	// 初始化路由
	r := routes.SetupRouter(db, cfg)

	// 使用配置中的端口
	port := cfg.ServerPort

	// 打印系统信息
	printSystemInfo(pool)

	// 启动服务器 - 注意监听所有接口(0.0.0.0)而不是只监听localhost
	Logger.Info("服务器启动在: http://0.0.0.0:%s", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		Logger.Error("启动服务器失败: %v", err)
		os.Exit(1)
	}
}

// autoMigrate 自动迁移所有模型（只添加新列和新表）
func autoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Admin{},
		&models.Employee{},
		&models.BiometricProfile{},
		&models.AttendanceRecord{},
	)
	if err != nil {
		return err
	}

	fmt.Println("Database migration completed")
	return nil
}

// dropAndRecreateTables 删除并重建所有表
func dropAndRecreateTables(db *gorm.DB) error {
	// 获取底层SQL连接
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB connection: %w", err)
	}

	// 禁用外键约束检查
	if _, err := sqlDB.Exec("SET FOREIGN_KEY_CHECKS = 0"); err != nil {
		log.Printf("禁用外键约束检查失败: %v", err)
	}
	defer sqlDB.Exec("SET FOREIGN_KEY_CHECKS = 1")

	// 删除所有表
	tables := []string{"admins", "employees", "biometric_profiles", "attendance_records"}
	for _, table := range tables {
		log.Printf("删除表: %s", table)
		if _, err := sqlDB.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			log.Printf("删除表失败: %v", err)
		}
	}

	// 重新创建表
	return autoMigrate(db)
}

// ensureAdminExists 确保系统中有管理员账户
func ensureAdminExists(db *gorm.DB, cfg *config.Config) {
	var count int64
	db.Model(&models.Admin{}).Count(&count)

	if count == 0 {
		// 如果没有管理员，创建默认管理员
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(cfg.DefaultAdminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("生成密码哈希失败: %v", err)
		}

		admin := models.Admin{
			Username: "admin",
			Password: string(hashedPassword),
			Role:     "system_admin",
			Status:   "active",
		}

		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("创建默认管理员失败: %v", err)
		}

		log.Println("已创建默认管理员账户")
	}
}

// startAbsenceCloser 按配置的cron表达式为当天没有记录的在职员工
// 补写缺勤记录
func startAbsenceCloser(db *gorm.DB, cfg *config.Config) (*cron.Cron, error) {
	attendanceService := services.NewAttendanceService(db, cfg, nil)

	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.AbsenceCloserCron, func() {
		marked, err := attendanceService.MarkAbsentees(time.Now())
		if err != nil {
			Logger.Error("缺勤结转失败: %v", err)
			return
		}
		Logger.Info("缺勤结转完成, 补写 %d 条记录", marked)
	})
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	Logger.Info("缺勤结转任务已启动, cron=%s", cfg.AbsenceCloserCron)
	return scheduler, nil
}

// printSystemInfo 打印系统信息
func printSystemInfo(pool *database.ConnectionPool) {
	// 打印数据库连接池信息
	stats, err := pool.Stats()
	if err == nil {
		log.Printf("数据库连接池状态: %+v", stats)
	}

	// 打印系统资源信息
	log.Printf("系统CPU核心数: %d", runtime.NumCPU())
	log.Printf("当前Go协程数: %d", runtime.NumGoroutine())

	// 打印内存信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Printf("系统内存使用: Alloc=%v MiB, TotalAlloc=%v MiB, Sys=%v MiB",
		m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024)
}
