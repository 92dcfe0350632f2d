package models

import (
	"time"
)

// AttendanceStatus represents the derived status of a day's record
type AttendanceStatus string

const (
	StatusPresent      AttendanceStatus = "present"
	StatusLate         AttendanceStatus = "late"
	StatusHalfDay      AttendanceStatus = "half_day"
	StatusAbsent       AttendanceStatus = "absent"
	StatusWorkFromHome AttendanceStatus = "work_from_home"
)

// AttendanceRecord 一名员工一个自然日的考勤记录。
// (employee_id, date) 上的唯一索引在存储层保证每人每天至多一条记录，
// 并发签到时由它裁决，应用层不做先查后插。
// 迟到与状态在签到时一次性推导，之后不随配置变化重算。
type AttendanceRecord struct {
	BaseModel
	EmployeeID uint      `gorm:"not null;uniqueIndex:idx_attendance_employee_date" json:"employee_id"`
	Date       time.Time `gorm:"type:date;not null;uniqueIndex:idx_attendance_employee_date" json:"date"`

	// 签到信息（缺勤结转产生的记录没有签到时间）
	CheckInTime      *time.Time `json:"check_in_time,omitempty"`
	CheckInLatitude  float64    `json:"check_in_latitude"`
	CheckInLongitude float64    `json:"check_in_longitude"`

	// 签退信息，签退前为空
	CheckOutTime      *time.Time `json:"check_out_time,omitempty"`
	CheckOutLatitude  *float64   `json:"check_out_latitude,omitempty"`
	CheckOutLongitude *float64   `json:"check_out_longitude,omitempty"`

	// 推导字段
	WorkingMinutes int              `json:"working_minutes"`
	Status         AttendanceStatus `gorm:"type:varchar(20);not null" json:"status"`
	IsLate         bool             `json:"is_late"`
	LateMinutes    int              `json:"late_minutes"`

	// 验证审计：每次成功验证的唯一标识与当时的判定数值
	VerificationID  string  `gorm:"type:varchar(64);index" json:"verification_id"`
	MatchDistance   float64 `json:"match_distance"`
	MatchConfidence int     `json:"match_confidence"`
	LivenessScore   float64 `json:"liveness_score"`

	Notes        string `gorm:"type:varchar(255)" json:"notes"`
	IsManual     bool   `json:"is_manual"`
	ManualReason string `gorm:"type:varchar(255)" json:"manual_reason,omitempty"`

	// Relations
	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// CheckedOut 记录是否已完成签退
func (r *AttendanceRecord) CheckedOut() bool {
	return r.CheckOutTime != nil
}

// DayOf 把时间戳归一到所在时区的当日零点，作为记录的日期键。
// 日期在签到瞬间固定，之后不再重算。
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
