package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"faceclock-http-service/internal/domain/models"
	"faceclock-http-service/internal/infrastructure/config"
	"faceclock-http-service/pkg/biometric"
	"faceclock-http-service/pkg/logger"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InterfaceEnrollmentService 定义人脸档案服务接口
type InterfaceEnrollmentService interface {
	Enroll(employeeID uint, poseVectors map[string][]float64, quality float64) (*models.BiometricProfile, error)
	EnrollFromImages(ctx context.Context, employeeID uint, frontImage, leftImage, rightImage string) (*models.BiometricProfile, error)
	Lookup(employeeID uint) (*models.BiometricProfile, error)
	Retire(employeeID uint) error
}

// EnrollmentService 维护员工的人脸档案：每人一份，重新注册整体替换
type EnrollmentService struct {
	DB     *gorm.DB
	Config *config.Config
	Face   InterfaceFaceService
	Redis  *RedisService
}

// NewEnrollmentService 创建一个新的人脸档案服务
func NewEnrollmentService(db *gorm.DB, cfg *config.Config, face InterfaceFaceService, redisService *RedisService) InterfaceEnrollmentService {
	return &EnrollmentService{
		DB:     db,
		Config: cfg,
		Face:   face,
		Redis:  redisService,
	}
}

// Enroll 写入或整体替换员工的人脸档案。
// 每个姿态向量都按部署固定维度校验；平均向量与所有姿态在同一行内
// 一起落库，不存在只写入部分姿态的可观察状态。
func (s *EnrollmentService) Enroll(employeeID uint, poseVectors map[string][]float64, quality float64) (*models.BiometricProfile, error) {
	var employee models.Employee
	if err := s.DB.First(&employee, employeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	if !employee.IsActive() {
		return nil, ErrEmployeeInactive
	}

	if len(poseVectors) == 0 {
		return nil, ErrInvalidDescriptor
	}
	vectors := make([][]float64, 0, len(poseVectors))
	for pose, v := range poseVectors {
		if len(v) != s.Config.EmbeddingDim || !biometric.ValidVector(v) {
			return nil, fmt.Errorf("%w: 姿态 %s 维度 %d, 要求 %d", ErrInvalidDescriptor, pose, len(v), s.Config.EmbeddingDim)
		}
		vectors = append(vectors, v)
	}

	avg := biometric.AverageVector(vectors...)
	if avg == nil {
		return nil, ErrInvalidDescriptor
	}

	posesJSON, err := json.Marshal(poseVectors)
	if err != nil {
		return nil, err
	}
	avgJSON, err := json.Marshal(avg)
	if err != nil {
		return nil, err
	}

	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}

	profile := &models.BiometricProfile{
		EmployeeID:  employeeID,
		PoseVectors: datatypes.JSON(posesJSON),
		AvgVector:   datatypes.JSON(avgJSON),
		VectorDim:   s.Config.EmbeddingDim,
		Quality:     quality,
		Active:      true,
		EnrolledAt:  time.Now(),
	}

	// 以 employee_id 唯一键做整行替换式 upsert：重新注册不与旧档案合并
	err = s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employee_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"pose_vectors", "avg_vector", "vector_dim", "quality", "active", "enrolled_at", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return nil, err
	}

	s.invalidateCache(employeeID)
	logger.Info("员工 %d 人脸档案已更新, 维度=%d, 质量=%.1f", employeeID, s.Config.EmbeddingDim, quality)

	return s.Lookup(employeeID)
}

// EnrollFromImages 用前/左/右三张姿态图像完成注册：先经人脸服务提取
// 各姿态描述子，再落库
func (s *EnrollmentService) EnrollFromImages(ctx context.Context, employeeID uint, frontImage, leftImage, rightImage string) (*models.BiometricProfile, error) {
	if s.Face == nil {
		return nil, ErrFaceServiceUnavailable
	}

	registration, err := s.Face.RegisterMultiAngle(ctx, frontImage, leftImage, rightImage)
	if err != nil {
		return nil, err
	}

	// 注册质量取各姿态评分的平均，换算到 0-100
	var quality float64
	if len(registration.QualityScores) > 0 {
		for _, score := range registration.QualityScores {
			quality += score
		}
		quality = quality / float64(len(registration.QualityScores)) * 100
	}

	return s.Enroll(employeeID, registration.PoseVectors, quality)
}

// Lookup 查找员工的有效人脸档案，只返回未下线的档案
func (s *EnrollmentService) Lookup(employeeID uint) (*models.BiometricProfile, error) {
	// 先查缓存
	if s.Redis != nil {
		var cached models.BiometricProfile
		if err := s.Redis.Get(biometricProfileKey(employeeID), &cached); err == nil && cached.Active {
			return &cached, nil
		}
	}

	var profile models.BiometricProfile
	err := s.DB.Where("employee_id = ? AND active = ?", employeeID, true).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotEnrolled
		}
		return nil, err
	}

	if s.Redis != nil {
		if err := s.Redis.Set(biometricProfileKey(employeeID), &profile, biometricProfileCacheTTL); err != nil {
			logger.Warning("人脸档案缓存写入失败: %v", err)
		}
	}
	return &profile, nil
}

// Retire 下线员工的人脸档案（软下线，不物理删除）
func (s *EnrollmentService) Retire(employeeID uint) error {
	result := s.DB.Model(&models.BiometricProfile{}).
		Where("employee_id = ? AND active = ?", employeeID, true).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotEnrolled
	}

	s.invalidateCache(employeeID)
	logger.Info("员工 %d 人脸档案已下线", employeeID)
	return nil
}

// invalidateCache 清除档案缓存
func (s *EnrollmentService) invalidateCache(employeeID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Delete(biometricProfileKey(employeeID)); err != nil {
		logger.Warning("人脸档案缓存清除失败: %v", err)
	}
}
