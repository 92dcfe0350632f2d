package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Database
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBMigrationMode string // 数据库迁移模式: "auto"(默认), "drop"(删除重建)

	// Server
	ServerPort string

	// Redis
	RedisHost string
	RedisPort string
	RedisDB   int

	// 人脸服务（外部特征提取服务）
	FaceServiceURL     string
	FaceServiceTimeout int // 秒，超时视为验证失败

	// 生物特征比对策略
	EmbeddingDim       int     // 部署固定的描述子维度，所有写入和比对都按此校验
	MatchThreshold     float64 // 欧氏距离阈值
	MinMatchConfidence int     // 独立的置信度门槛（0-100）

	// 活体检测策略
	LivenessMinFrames       int
	LivenessMinMovement     float64
	LivenessMaxMovement     float64
	LivenessMinScore        float64
	LivenessMinFrameQuality float64

	// 办公地点围栏
	OfficeLatitude     float64
	OfficeLongitude    float64
	OfficeRadiusMeters float64

	// 考勤策略
	WorkStartCutoff      string // 上班判定时刻，格式 "HH:MM"，本地时间
	LateGraceMinutes     int    // 迟到宽限分钟数
	HalfDayLateMinutes   int    // 超过该迟到分钟数计半天
	CheckoutFaceRequired bool   // 签退是否需要再次人脸验证
	AbsenceCloserCron    string // 日终缺勤结转任务的 cron 表达式

	// JWT Authentication
	JWTSecretKey string

	// Admin
	DefaultAdminPassword string
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	// Get environment type (default to LOCAL if not set)
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	// Set prefix based on environment type
	if strings.ToUpper(envType) == "LOCAL" {
		prefix = "LOCAL_"
	} else if strings.ToUpper(envType) == "SERVER" {
		prefix = "SERVER_"
	} else {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	return &Config{
		// Environment type
		EnvType: envType,

		// Database config - use environment-specific variables if available
		DBHost:          getEnv(prefix+"DB_HOST", getEnv("DB_HOST", "localhost")),
		DBUser:          getEnv(prefix+"DB_USER", getEnv("DB_USER", "root")),
		DBPassword:      getEnv(prefix+"DB_PASSWORD", getEnv("DB_PASSWORD", "")),
		DBName:          getEnv(prefix+"DB_NAME", getEnv("DB_NAME", "faceclock_db")),
		DBPort:          getEnv(prefix+"DB_PORT", getEnv("DB_PORT", "3306")),
		DBMigrationMode: getEnv(prefix+"DB_MIGRATION_MODE", getEnv("DB_MIGRATION_MODE", "auto")),

		// Server config
		ServerPort: getEnv(prefix+"SERVER_PORT", getEnv("SERVER_PORT", "8080")),

		// Redis config
		RedisHost: getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "localhost")),
		RedisPort: getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6379")),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),

		// 人脸服务配置
		FaceServiceURL:     getEnv("FACE_SERVICE_URL", "http://localhost:8000"),
		FaceServiceTimeout: getEnvAsInt("FACE_SERVICE_TIMEOUT_SECONDS", 10),

		// 比对策略：维度按部署固定，128 或 512，绝不混用
		EmbeddingDim:       getEnvAsInt("EMBEDDING_DIM", 512),
		MatchThreshold:     getEnvAsFloat("MATCH_THRESHOLD", 0.9),
		MinMatchConfidence: getEnvAsInt("MIN_MATCH_CONFIDENCE", 70),

		// 活体检测策略
		LivenessMinFrames:       getEnvAsInt("LIVENESS_MIN_FRAMES", 3),
		LivenessMinMovement:     getEnvAsFloat("LIVENESS_MIN_MOVEMENT", 0.01),
		LivenessMaxMovement:     getEnvAsFloat("LIVENESS_MAX_MOVEMENT", 0.35),
		LivenessMinScore:        getEnvAsFloat("LIVENESS_MIN_SCORE", 0.6),
		LivenessMinFrameQuality: getEnvAsFloat("LIVENESS_MIN_FRAME_QUALITY", 0.5),

		// 办公地点围栏
		OfficeLatitude:     getEnvAsFloat("OFFICE_LATITUDE", 39.9042),
		OfficeLongitude:    getEnvAsFloat("OFFICE_LONGITUDE", 116.4074),
		OfficeRadiusMeters: getEnvAsFloat("OFFICE_RADIUS_METERS", 200),

		// 考勤策略
		WorkStartCutoff:      getEnv("WORK_START_CUTOFF", "09:00"),
		LateGraceMinutes:     getEnvAsInt("LATE_GRACE_MINUTES", 30),
		HalfDayLateMinutes:   getEnvAsInt("HALF_DAY_LATE_MINUTES", 240),
		CheckoutFaceRequired: getEnvAsBool("CHECKOUT_FACE_REQUIRED", false),
		AbsenceCloserCron:    getEnv("ABSENCE_CLOSER_CRON", "0 22 * * *"),

		// JWT Config
		JWTSecretKey: getEnv("JWT_SECRET_KEY", "faceclock-secret-key-change-in-production"),

		// Admin Config
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "admin123"),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true&multiStatements=true"
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as float with default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
