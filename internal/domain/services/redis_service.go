package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"faceclock-http-service/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// 人脸档案缓存的有效期
const biometricProfileCacheTTL = 10 * time.Minute

// InterfaceRedisService 定义Redis服务接口
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	Ping() error
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// Ping 测试Redis连接
func (s *RedisService) Ping() error {
	return s.Client.Ping(s.Ctx).Err()
}

// biometricProfileKey 人脸档案缓存键
func biometricProfileKey(employeeID uint) string {
	return fmt.Sprintf("biometric_profile:%d", employeeID)
}
