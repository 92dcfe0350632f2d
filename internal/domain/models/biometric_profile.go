package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// BiometricProfile 员工的人脸档案。每个员工至多一份（employee_id 唯一），
// 重新注册时整体替换，停用时软下线，不在正常业务中物理删除。
type BiometricProfile struct {
	BaseModel
	EmployeeID uint `gorm:"uniqueIndex;not null" json:"employee_id"`

	// 各姿态（front/left/right）的描述子，JSON对象：{"front":[...], ...}
	PoseVectors datatypes.JSON `gorm:"type:json" json:"-"`
	// 各姿态逐元素平均后的描述子，验证时的比对基准
	AvgVector datatypes.JSON `gorm:"type:json" json:"-"`

	VectorDim  int       `gorm:"not null" json:"vector_dim"` // 部署固定维度，写入时校验
	Quality    float64   `json:"quality"`                    // 注册质量评分 0-100
	Active     bool      `gorm:"default:true" json:"active"`
	EnrolledAt time.Time `json:"enrolled_at"`

	// Relations
	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// DecodePoseVectors 解码姿态描述子
func (p *BiometricProfile) DecodePoseVectors() (map[string][]float64, error) {
	var poses map[string][]float64
	if err := json.Unmarshal(p.PoseVectors, &poses); err != nil {
		return nil, err
	}
	return poses, nil
}

// DecodeAvgVector 解码平均描述子
func (p *BiometricProfile) DecodeAvgVector() ([]float64, error) {
	var avg []float64
	if err := json.Unmarshal(p.AvgVector, &avg); err != nil {
		return nil, err
	}
	return avg, nil
}
