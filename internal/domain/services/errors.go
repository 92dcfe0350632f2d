package services

import (
	"errors"
	"fmt"
)

// 业务服务返回的哨兵错误。全部可通过换输入重试恢复，均以类型化结果
// 返回给调用方；只有持久层连接故障会以普通错误透传，调用方据此区分
// “验证未通过”与“系统不可用”。
var (
	// ErrProfileNotEnrolled 身份没有有效的人脸档案
	ErrProfileNotEnrolled = errors.New("未登记有效的人脸档案")
	// ErrInvalidDescriptor 描述子维度错误或包含非法数值
	ErrInvalidDescriptor = errors.New("人脸描述子无效")
	// ErrNoFaceDetected 上游未检测到人脸
	ErrNoFaceDetected = errors.New("未检测到人脸")
	// ErrMultipleFacesDetected 上游检测到多张人脸
	ErrMultipleFacesDetected = errors.New("检测到多张人脸")
	// ErrFaceServiceUnavailable 人脸服务超时或出错，一律按验证失败处理
	ErrFaceServiceUnavailable = errors.New("人脸服务不可用")
	// ErrAlreadyCheckedIn 当日已存在考勤记录
	ErrAlreadyCheckedIn = errors.New("今日已签到")
	// ErrNotCheckedInYet 当日没有可签退的记录
	ErrNotCheckedInYet = errors.New("今日尚未签到")
	// ErrAlreadyCheckedOut 当日记录已处于签退态
	ErrAlreadyCheckedOut = errors.New("今日已签退")
	// ErrEmployeeNotFound 员工不存在
	ErrEmployeeNotFound = errors.New("员工不存在")
	// ErrEmployeeInactive 员工已停用
	ErrEmployeeInactive = errors.New("员工已停用")
	// ErrAttendanceNotFound 考勤记录不存在
	ErrAttendanceNotFound = errors.New("考勤记录不存在")
)

// VerificationError 身份验证失败，携带当次判定数值供审计与用户反馈，
// 绝不携带档案中存储的描述子
type VerificationError struct {
	Reason        string  `json:"reason"`
	Distance      float64 `json:"distance"`
	Confidence    int     `json:"confidence"`
	LivenessScore float64 `json:"liveness_score"`
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("身份验证未通过: %s", e.Reason)
}

// OutOfFenceError 不在围栏范围内，携带实际距离与允许半径供用户反馈
type OutOfFenceError struct {
	DistanceMeters float64 `json:"distance_meters"`
	RadiusMeters   float64 `json:"radius_meters"`
}

func (e *OutOfFenceError) Error() string {
	return fmt.Sprintf("不在打卡范围内: 距离 %.0f 米, 允许 %.0f 米", e.DistanceMeters, e.RadiusMeters)
}
