package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"faceclock-http-service/internal/domain/models"
	"faceclock-http-service/internal/infrastructure/config"
	"faceclock-http-service/pkg/biometric"
	"faceclock-http-service/pkg/geo"
	"faceclock-http-service/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InterfaceAttendanceService 定义考勤服务接口
type InterfaceAttendanceService interface {
	CheckIn(employeeID uint, frames []biometric.Frame, point geo.Point, accuracy float64, at time.Time) (*models.AttendanceRecord, error)
	CheckOut(employeeID uint, frames []biometric.Frame, point geo.Point, accuracy float64, at time.Time) (*models.AttendanceRecord, error)
	GetTodayRecord(employeeID uint, now time.Time) (*models.AttendanceRecord, error)
	GetEmployeeRecords(employeeID uint, from, to time.Time, page, pageSize int) ([]models.AttendanceRecord, models.PaginationResult, error)
	GetRecords(day *time.Time, status string, page, pageSize int) ([]models.AttendanceRecord, models.PaginationResult, error)
	MarkAbsentees(day time.Time) (int, error)
	CreateManualRecord(employeeID uint, day time.Time, status models.AttendanceStatus, reason string, operatorID uint) (*models.AttendanceRecord, error)
}

// AttendanceService 考勤状态机：签到、签退、日终缺勤结转与人工补录。
// 先验证身份、再校验围栏、最后落库，三步任何一步失败都不产生记录。
type AttendanceService struct {
	DB         *gorm.DB
	Config     *config.Config
	Enrollment InterfaceEnrollmentService
}

// NewAttendanceService 创建一个新的考勤服务
func NewAttendanceService(db *gorm.DB, cfg *config.Config, enrollment InterfaceEnrollmentService) InterfaceAttendanceService {
	return &AttendanceService{
		DB:         db,
		Config:     cfg,
		Enrollment: enrollment,
	}
}

// verification 一次通过的身份验证的审计数值
type verification struct {
	ID            string
	Distance      float64
	Confidence    int
	LivenessScore float64
}

// verifyIdentity 把提交帧与员工档案比对，并按帧数决定是否做活体检测。
// 比对用帧向量的逐元素平均，阈值与置信度门槛在验证时读取，
// 判定数值随结果返回用于落库审计。
func (s *AttendanceService) verifyIdentity(employeeID uint, frames []biometric.Frame) (*verification, error) {
	profile, err := s.Enrollment.Lookup(employeeID)
	if err != nil {
		return nil, err
	}

	stored, err := profile.DecodeAvgVector()
	if err != nil {
		return nil, fmt.Errorf("%w: 档案向量解码失败", ErrInvalidDescriptor)
	}

	if len(frames) == 0 {
		return nil, ErrInvalidDescriptor
	}
	embeddings := make([][]float64, 0, len(frames))
	for _, f := range frames {
		embeddings = append(embeddings, f.Embedding)
	}
	candidate := biometric.AverageVector(embeddings...)
	if candidate == nil || len(candidate) != profile.VectorDim {
		return nil, ErrInvalidDescriptor
	}

	// 多帧提交一律走活体聚合，帧数不足由聚合器按策略判不通过；
	// 单帧提交视为照片打卡，跳过活体检测。
	var livenessScore float64 = 1.0
	if len(frames) > 1 {
		result := biometric.AssessLiveness(frames, biometric.LivenessPolicy{
			MinFrames:       s.Config.LivenessMinFrames,
			MinMovement:     s.Config.LivenessMinMovement,
			MaxMovement:     s.Config.LivenessMaxMovement,
			MinScore:        s.Config.LivenessMinScore,
			MinFrameQuality: s.Config.LivenessMinFrameQuality,
		})
		if !result.Passed {
			return nil, &VerificationError{
				Reason:        result.Reason,
				LivenessScore: result.Score,
			}
		}
		livenessScore = result.Score
	}

	cmp := biometric.Compare(candidate, stored, s.Config.MatchThreshold, s.Config.MinMatchConfidence)
	if !cmp.IsMatch {
		return nil, &VerificationError{
			Reason:        "人脸比对未通过",
			Distance:      cmp.Distance,
			Confidence:    cmp.Confidence,
			LivenessScore: livenessScore,
		}
	}

	return &verification{
		ID:            uuid.New().String(),
		Distance:      cmp.Distance,
		Confidence:    cmp.Confidence,
		LivenessScore: livenessScore,
	}, nil
}

// checkFence 校验打卡坐标是否落在办公围栏内
func (s *AttendanceService) checkFence(point geo.Point) error {
	center := geo.Point{Latitude: s.Config.OfficeLatitude, Longitude: s.Config.OfficeLongitude}
	result := geo.IsWithinFence(point, center, s.Config.OfficeRadiusMeters)
	if !result.Within {
		return &OutOfFenceError{
			DistanceMeters: result.DistanceMeters,
			RadiusMeters:   s.Config.OfficeRadiusMeters,
		}
	}
	return nil
}

// deriveLateness 按签到时刻推导迟到分钟数与记录状态。
// 判定基准是签到当天、签到时区下的上班时刻，跨午夜不结转。
func (s *AttendanceService) deriveLateness(at time.Time) (status models.AttendanceStatus, isLate bool, lateMinutes int) {
	cutoffClock, err := time.Parse("15:04", s.Config.WorkStartCutoff)
	if err != nil {
		// 配置损坏时按默认上班时刻兜底
		cutoffClock, _ = time.Parse("15:04", "09:00")
		logger.Warning("上班时刻配置 %q 无法解析, 按 09:00 处理", s.Config.WorkStartCutoff)
	}
	cutoff := time.Date(at.Year(), at.Month(), at.Day(),
		cutoffClock.Hour(), cutoffClock.Minute(), 0, 0, at.Location())

	if at.After(cutoff) {
		lateMinutes = int(at.Sub(cutoff).Minutes())
	}
	isLate = lateMinutes > s.Config.LateGraceMinutes

	switch {
	case lateMinutes > s.Config.HalfDayLateMinutes:
		status = models.StatusHalfDay
	case isLate:
		status = models.StatusLate
	default:
		status = models.StatusPresent
	}
	return status, isLate, lateMinutes
}

// CheckIn 员工签到。accuracy 是客户端上报的定位精度，随记录备注留档，
// 不参与围栏判定。
func (s *AttendanceService) CheckIn(employeeID uint, frames []biometric.Frame, point geo.Point, accuracy float64, at time.Time) (*models.AttendanceRecord, error) {
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

	v, err := s.verifyIdentity(employeeID, frames)
	if err != nil {
		return nil, err
	}
	if err := s.checkFence(point); err != nil {
		return nil, err
	}

	status, isLate, lateMinutes := s.deriveLateness(at)
	checkInTime := at

	record := &models.AttendanceRecord{
		EmployeeID:       employeeID,
		Date:             models.DayOf(at),
		CheckInTime:      &checkInTime,
		CheckInLatitude:  point.Latitude,
		CheckInLongitude: point.Longitude,
		Status:           status,
		IsLate:           isLate,
		LateMinutes:      lateMinutes,
		VerificationID:   v.ID,
		MatchDistance:    v.Distance,
		MatchConfidence:  v.Confidence,
		LivenessScore:    v.LivenessScore,
		Notes:            fmt.Sprintf("定位精度 %.0f 米", accuracy),
	}

	// 同日重复签到由 (employee_id, date) 唯一索引裁决
	if err := s.DB.Create(record).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}

	logger.Info("员工 %d 签到成功, 状态=%s, 迟到=%d分钟, 验证=%s", employeeID, status, lateMinutes, v.ID)
	return record, nil
}

// CheckOut 员工签退。是否需要再次人脸验证由配置决定，围栏始终校验。
// 签退写入用条件更新保证幂等：只有尚未签退的记录会被更新。
func (s *AttendanceService) CheckOut(employeeID uint, frames []biometric.Frame, point geo.Point, accuracy float64, at time.Time) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := s.DB.Where("employee_id = ? AND date = ?", employeeID, models.DayOf(at)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotCheckedInYet
		}
		return nil, err
	}
	if record.CheckedOut() {
		return nil, ErrAlreadyCheckedOut
	}
	if record.CheckInTime == nil {
		// 缺勤结转或人工补录的记录没有可结算的签到时间
		return nil, ErrNotCheckedInYet
	}

	if s.Config.CheckoutFaceRequired {
		if _, err := s.verifyIdentity(employeeID, frames); err != nil {
			return nil, err
		}
	}
	if err := s.checkFence(point); err != nil {
		return nil, err
	}

	workingMinutes := int(math.Round(at.Sub(*record.CheckInTime).Minutes()))
	if workingMinutes < 0 {
		workingMinutes = 0
	}
	checkOutTime := at

	// 条件更新：并发签退只有一个会命中未签退的行
	result := s.DB.Model(&models.AttendanceRecord{}).
		Where("id = ? AND check_out_time IS NULL", record.ID).
		Updates(map[string]interface{}{
			"check_out_time":      &checkOutTime,
			"check_out_latitude":  point.Latitude,
			"check_out_longitude": point.Longitude,
			"working_minutes":     workingMinutes,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyCheckedOut
	}

	record.CheckOutTime = &checkOutTime
	record.CheckOutLatitude = &point.Latitude
	record.CheckOutLongitude = &point.Longitude
	record.WorkingMinutes = workingMinutes

	logger.Info("员工 %d 签退成功, 工作时长=%d分钟", employeeID, workingMinutes)
	return &record, nil
}

// GetTodayRecord 查询员工当天的考勤记录
func (s *AttendanceService) GetTodayRecord(employeeID uint, now time.Time) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := s.DB.Where("employee_id = ? AND date = ?", employeeID, models.DayOf(now)).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttendanceNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetEmployeeRecords 按日期区间分页查询员工的考勤记录
func (s *AttendanceService) GetEmployeeRecords(employeeID uint, from, to time.Time, page, pageSize int) ([]models.AttendanceRecord, models.PaginationResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	query := s.DB.Model(&models.AttendanceRecord{}).Where("employee_id = ?", employeeID)
	if !from.IsZero() {
		query = query.Where("date >= ?", models.DayOf(from))
	}
	if !to.IsZero() {
		query = query.Where("date <= ?", models.DayOf(to))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	var records []models.AttendanceRecord
	err := query.Order("date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, models.PaginationResult{}, err
	}

	return records, models.NewPaginationResult(total, page, pageSize), nil
}

// GetRecords 管理端分页查询考勤记录，可按日期和状态过滤
func (s *AttendanceService) GetRecords(day *time.Time, status string, page, pageSize int) ([]models.AttendanceRecord, models.PaginationResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	query := s.DB.Model(&models.AttendanceRecord{})
	if day != nil {
		query = query.Where("date = ?", models.DayOf(*day))
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, models.PaginationResult{}, err
	}

	var records []models.AttendanceRecord
	err := query.Preload("Employee").
		Order("date DESC, employee_id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error
	if err != nil {
		return nil, models.PaginationResult{}, err
	}

	return records, models.NewPaginationResult(total, page, pageSize), nil
}

// MarkAbsentees 日终缺勤结转：为指定日期没有任何考勤记录的在职员工
// 补写缺勤记录。逐员工插入并忽略唯一键冲突，与迟来的签到并发安全。
func (s *AttendanceService) MarkAbsentees(day time.Time) (int, error) {
	date := models.DayOf(day)

	var employees []models.Employee
	err := s.DB.Where("status = ?", "active").
		Where("id NOT IN (?)",
			s.DB.Model(&models.AttendanceRecord{}).Select("employee_id").Where("date = ?", date),
		).
		Find(&employees).Error
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, employee := range employees {
		record := &models.AttendanceRecord{
			EmployeeID:   employee.ID,
			Date:         date,
			Status:       models.StatusAbsent,
			IsManual:     true,
			ManualReason: "日终缺勤结转",
		}
		if err := s.DB.Create(record).Error; err != nil {
			if isDuplicateKeyError(err) {
				// 结转期间刚好签到了，保留员工自己的记录
				continue
			}
			return marked, err
		}
		marked++
	}

	logger.Info("日期 %s 缺勤结转完成, 补写 %d 条记录", date.Format("2006-01-02"), marked)
	return marked, nil
}

// CreateManualRecord 管理员人工补录考勤记录。这是 work_from_home
// 状态的唯一来源，打卡流程不会产生它。
func (s *AttendanceService) CreateManualRecord(employeeID uint, day time.Time, status models.AttendanceStatus, reason string, operatorID uint) (*models.AttendanceRecord, error) {
	var employee models.Employee
	if err := s.DB.First(&employee, employeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}

	switch status {
	case models.StatusPresent, models.StatusLate, models.StatusHalfDay,
		models.StatusAbsent, models.StatusWorkFromHome:
	default:
		return nil, fmt.Errorf("无效的考勤状态: %s", status)
	}

	record := &models.AttendanceRecord{
		EmployeeID:   employeeID,
		Date:         models.DayOf(day),
		Status:       status,
		IsManual:     true,
		ManualReason: reason,
		Notes:        fmt.Sprintf("管理员 %d 补录", operatorID),
	}
	if err := s.DB.Create(record).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrAlreadyCheckedIn
		}
		return nil, err
	}

	logger.Info("管理员 %d 为员工 %d 补录 %s 记录, 日期=%s", operatorID, employeeID, status, record.Date.Format("2006-01-02"))
	return record, nil
}

// isDuplicateKeyError 判断是否为唯一键冲突。连接池开启了错误翻译，
// 正常路径走 gorm.ErrDuplicatedKey，字符串匹配兜底不同驱动的原始错误。
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
