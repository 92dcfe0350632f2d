package services

import (
	"errors"

	"faceclock-http-service/internal/domain/models"
	"faceclock-http-service/internal/infrastructure/config"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InterfaceEmployeeService defines the employee service interface
type InterfaceEmployeeService interface {
	GetAllEmployees(page int, pageSize int, search string) ([]models.Employee, int64, error)
	GetEmployeeByID(id uint) (*models.Employee, error)
	CreateEmployee(employee *models.Employee) error
	UpdateEmployee(id uint, updates map[string]interface{}) (*models.Employee, error)
	DeactivateEmployee(id uint) error
}

// EmployeeService 提供员工相关的服务
type EmployeeService struct {
	DB         *gorm.DB
	Config     *config.Config
	Enrollment InterfaceEnrollmentService
}

// NewEmployeeService 创建一个新的员工服务
func NewEmployeeService(db *gorm.DB, cfg *config.Config, enrollment InterfaceEnrollmentService) InterfaceEmployeeService {
	return &EmployeeService{
		DB:         db,
		Config:     cfg,
		Enrollment: enrollment,
	}
}

// GetAllEmployees 获取所有员工
func (s *EmployeeService) GetAllEmployees(page int, pageSize int, search string) ([]models.Employee, int64, error) {
	var employees []models.Employee
	var total int64

	query := s.DB.Model(&models.Employee{})
	if search != "" {
		query = query.Where("name LIKE ? OR phone LIKE ? OR department LIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&employees).Error; err != nil {
		return nil, 0, err
	}
	return employees, total, nil
}

// GetEmployeeByID 根据ID获取员工
func (s *EmployeeService) GetEmployeeByID(id uint) (*models.Employee, error) {
	var employee models.Employee
	if err := s.DB.First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return &employee, nil
}

// CreateEmployee 创建新员工
func (s *EmployeeService) CreateEmployee(employee *models.Employee) error {
	// 验证手机号唯一性
	var count int64
	if err := s.DB.Model(&models.Employee{}).Where("phone = ?", employee.Phone).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("手机号已被使用")
	}

	return s.DB.Create(employee).Error
}

// UpdateEmployee 更新员工信息
func (s *EmployeeService) UpdateEmployee(id uint, updates map[string]interface{}) (*models.Employee, error) {
	employee, err := s.GetEmployeeByID(id)
	if err != nil {
		return nil, err
	}

	// map 更新不经过模型钩子，密码在这里哈希
	if password, ok := updates["password"].(string); ok && password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password"] = string(hashed)
	}

	// 如果更新手机号，需要检查唯一性
	if phone, ok := updates["phone"].(string); ok && phone != employee.Phone {
		var count int64
		if err := s.DB.Model(&models.Employee{}).Where("phone = ? AND id != ?", phone, id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, errors.New("手机号已被其他员工使用")
		}
	}

	if err := s.DB.Model(employee).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetEmployeeByID(id)
}

// DeactivateEmployee 停用员工。员工记录保留，对应的人脸档案同步下线，
// 不做物理删除。
func (s *EmployeeService) DeactivateEmployee(id uint) error {
	employee, err := s.GetEmployeeByID(id)
	if err != nil {
		return err
	}

	if err := s.DB.Model(employee).Update("status", "inactive").Error; err != nil {
		return err
	}

	// 下线人脸档案；没有档案不算错误
	if s.Enrollment != nil {
		if err := s.Enrollment.Retire(id); err != nil && !errors.Is(err, ErrProfileNotEnrolled) {
			return err
		}
	}
	return nil
}
