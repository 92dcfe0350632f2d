package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Employee represents company employees
type Employee struct {
	BaseModel
	Name       string `gorm:"type:varchar(50);not null" json:"name"`
	Email      string `gorm:"type:varchar(100)" json:"email"`
	Phone      string `gorm:"type:varchar(20);unique;not null" json:"phone"`
	Password   string `gorm:"type:varchar(100);not null" json:"-"` // 不在JSON中暴露密码
	Department string `gorm:"type:varchar(50)" json:"department"`
	Position   string `gorm:"type:varchar(50)" json:"position"`
	Status     string `gorm:"type:varchar(20);default:'active'" json:"status"` // Status: active, inactive

	// Relations
	BiometricProfile  *BiometricProfile  `gorm:"foreignKey:EmployeeID" json:"biometric_profile,omitempty"`
	AttendanceRecords []AttendanceRecord `gorm:"foreignKey:EmployeeID" json:"attendance_records,omitempty"`
}

// IsActive 员工是否处于在职可打卡状态
func (e *Employee) IsActive() bool {
	return e.Status == "active"
}

// BeforeCreate 是一个GORM钩子，在创建新记录前运行
func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	// 如果提供了密码，对其进行哈希处理
	if e.Password != "" {
		hashedPassword, err := hashPassword(e.Password)
		if err != nil {
			return err
		}
		e.Password = hashedPassword
	}
	return nil
}

// BeforeSave 是一个GORM钩子，在保存记录前运行
func (e *Employee) BeforeSave(tx *gorm.DB) error {
	// 如果提供了密码且不是已哈希的，对其进行哈希处理
	if e.Password != "" && len(e.Password) < 60 {
		hashedPassword, err := hashPassword(e.Password)
		if err != nil {
			return err
		}
		e.Password = hashedPassword
	}
	return nil
}

// hashPassword 使用bcrypt对密码进行哈希
func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword 校验明文密码与哈希是否匹配
func CheckPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
