package services

import (
	"sync"
	"testing"
	"time"

	"faceclock-http-service/internal/domain/models"
	"faceclock-http-service/pkg/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	officePoint  = geo.Point{Latitude: 39.9042, Longitude: 116.4074}
	farawayPoint = geo.Point{Latitude: 39.9500, Longitude: 116.4074}
)

// newAttendanceFixture 准备一套已登记人脸档案的考勤测试环境
func newAttendanceFixture(t *testing.T) (InterfaceAttendanceService, InterfaceEnrollmentService, *models.Employee, []float64) {
	t.Helper()

	db := setupTestDB(t)
	cfg := testConfig()
	enrollment := NewEnrollmentService(db, cfg, nil, nil)
	attendance := NewAttendanceService(db, cfg, enrollment)

	employee := createTestEmployee(t, db, "13800138001")
	base := testVector(0.1)
	enrollTestProfile(t, enrollment, employee.ID, base)

	return attendance, enrollment, employee, base
}

func testDay(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, testLoc)
}

func TestCheckInOnTime(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	record, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPresent, record.Status)
	assert.False(t, record.IsLate)
	assert.Equal(t, 0, record.LateMinutes)
	assert.NotEmpty(t, record.VerificationID)
	assert.Greater(t, record.MatchConfidence, 70)
	assert.Greater(t, record.LivenessScore, 0.0)
	require.NotNil(t, record.CheckInTime)
	assert.Equal(t, models.DayOf(testDay(8, 50)), record.Date)
}

func TestCheckInWithinGrace(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	record, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(9, 20))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPresent, record.Status)
	assert.False(t, record.IsLate)
	assert.Equal(t, 20, record.LateMinutes)
}

func TestCheckInLate(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	record, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(9, 31))
	require.NoError(t, err)

	assert.Equal(t, models.StatusLate, record.Status)
	assert.True(t, record.IsLate)
	assert.Equal(t, 31, record.LateMinutes)
}

func TestCheckInHalfDay(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	record, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(13, 1))
	require.NoError(t, err)

	assert.Equal(t, models.StatusHalfDay, record.Status)
	assert.True(t, record.IsLate)
	assert.Equal(t, 241, record.LateMinutes)
}

func TestCheckInDuplicateSameDay(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	_, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
	require.NoError(t, err)

	_, err = attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(10, 0))
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestCheckInConcurrentSameDay(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
		}(i)
	}
	wg.Wait()

	// 唯一索引裁决：恰好一个成功，另一个判定为重复签到
	var succeeded, duplicated int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrAlreadyCheckedIn):
			duplicated++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, duplicated)
}

func TestCheckInWrongFace(t *testing.T) {
	attendance, _, employee, _ := newAttendanceFixture(t)

	impostor := testVector(0.9)
	_, err := attendance.CheckIn(employee.ID, liveFrames(impostor, 3, 0.05), officePoint, 10, testDay(8, 50))

	var verificationErr *VerificationError
	require.ErrorAs(t, err, &verificationErr)
	assert.Greater(t, verificationErr.Distance, 0.9)
}

func TestCheckInReplayedFramesFailLiveness(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	_, err := attendance.CheckIn(employee.ID, replayFrames(base, 3), officePoint, 10, testDay(8, 50))

	var verificationErr *VerificationError
	require.ErrorAs(t, err, &verificationErr)
	assert.Contains(t, verificationErr.Reason, "回放")
}

func TestCheckInTwoFramesBelowMinimumFailLiveness(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	// 多帧但不足活体下限不能绕过活体检测，按有效帧数不足判不通过
	_, err := attendance.CheckIn(employee.ID, replayFrames(base, 2), officePoint, 10, testDay(8, 50))

	var verificationErr *VerificationError
	require.ErrorAs(t, err, &verificationErr)
	assert.Contains(t, verificationErr.Reason, "不足")

	_, err = attendance.GetTodayRecord(employee.ID, testDay(9, 0))
	assert.ErrorIs(t, err, ErrAttendanceNotFound)
}

func TestCheckInSingleFrameSkipsLiveness(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	// 单帧提交视为照片打卡，只做比对
	record, err := attendance.CheckIn(employee.ID, replayFrames(base, 1), officePoint, 10, testDay(8, 50))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPresent, record.Status)
}

func TestCheckInOutOfFence(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	_, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), farawayPoint, 10, testDay(8, 50))

	var fenceErr *OutOfFenceError
	require.ErrorAs(t, err, &fenceErr)
	assert.Greater(t, fenceErr.DistanceMeters, fenceErr.RadiusMeters)

	// 围栏拒绝不留下任何记录
	_, err = attendance.GetTodayRecord(employee.ID, testDay(9, 0))
	assert.ErrorIs(t, err, ErrAttendanceNotFound)
}

func TestCheckInNotEnrolled(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	enrollment := NewEnrollmentService(db, cfg, nil, nil)
	attendance := NewAttendanceService(db, cfg, enrollment)
	employee := createTestEmployee(t, db, "13800138002")

	_, err := attendance.CheckIn(employee.ID, liveFrames(testVector(0.1), 3, 0.05), officePoint, 10, testDay(8, 50))
	assert.ErrorIs(t, err, ErrProfileNotEnrolled)
}

func TestCheckInInactiveEmployee(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	db := attendance.(*AttendanceService).DB
	require.NoError(t, db.Model(&models.Employee{}).
		Where("id = ?", employee.ID).Update("status", "inactive").Error)

	_, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
	assert.ErrorIs(t, err, ErrEmployeeInactive)
}

func TestCheckOutSettlesWorkingMinutes(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	_, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
	require.NoError(t, err)

	record, err := attendance.CheckOut(employee.ID, nil, officePoint, 10, testDay(17, 50))
	require.NoError(t, err)

	assert.Equal(t, 540, record.WorkingMinutes)
	require.NotNil(t, record.CheckOutTime)
	assert.Equal(t, models.StatusPresent, record.Status)
}

func TestCheckOutBeforeCheckIn(t *testing.T) {
	attendance, _, employee, _ := newAttendanceFixture(t)

	_, err := attendance.CheckOut(employee.ID, nil, officePoint, 10, testDay(17, 50))
	assert.ErrorIs(t, err, ErrNotCheckedInYet)
}

func TestCheckOutTwice(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	_, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
	require.NoError(t, err)

	_, err = attendance.CheckOut(employee.ID, nil, officePoint, 10, testDay(17, 50))
	require.NoError(t, err)

	_, err = attendance.CheckOut(employee.ID, nil, officePoint, 10, testDay(18, 0))
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestCheckOutOutOfFence(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	_, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
	require.NoError(t, err)

	_, err = attendance.CheckOut(employee.ID, nil, farawayPoint, 10, testDay(17, 50))

	var fenceErr *OutOfFenceError
	assert.ErrorAs(t, err, &fenceErr)
}

func TestCheckOutWithFaceRequired(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	cfg.CheckoutFaceRequired = true
	enrollment := NewEnrollmentService(db, cfg, nil, nil)
	attendance := NewAttendanceService(db, cfg, enrollment)

	employee := createTestEmployee(t, db, "13800138003")
	base := testVector(0.1)
	enrollTestProfile(t, enrollment, employee.ID, base)

	_, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
	require.NoError(t, err)

	// 没有帧时签退必须被验证环节拒绝
	_, err = attendance.CheckOut(employee.ID, nil, officePoint, 10, testDay(17, 50))
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	record, err := attendance.CheckOut(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(17, 50))
	require.NoError(t, err)
	assert.Equal(t, 540, record.WorkingMinutes)
}

func TestGetTodayRecord(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	_, err := attendance.GetTodayRecord(employee.ID, testDay(8, 0))
	assert.ErrorIs(t, err, ErrAttendanceNotFound)

	_, err = attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
	require.NoError(t, err)

	record, err := attendance.GetTodayRecord(employee.ID, testDay(12, 0))
	require.NoError(t, err)
	assert.Equal(t, employee.ID, record.EmployeeID)
}

func TestGetEmployeeRecordsRange(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	for day := 10; day <= 12; day++ {
		at := time.Date(2025, 3, day, 8, 50, 0, 0, testLoc)
		_, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, at)
		require.NoError(t, err)
	}

	from := time.Date(2025, 3, 11, 0, 0, 0, 0, testLoc)
	to := time.Date(2025, 3, 12, 0, 0, 0, 0, testLoc)
	records, pagination, err := attendance.GetEmployeeRecords(employee.ID, from, to, 1, 10)
	require.NoError(t, err)

	assert.Len(t, records, 2)
	assert.Equal(t, int64(2), pagination.Total)
	// 按日期倒序返回
	assert.True(t, records[0].Date.After(records[1].Date))
}

func TestMarkAbsentees(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)
	db := attendance.(*AttendanceService).DB

	other := createTestEmployee(t, db, "13800138004")
	inactive := createTestEmployee(t, db, "13800138005")
	require.NoError(t, db.Model(inactive).Update("status", "inactive").Error)

	_, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
	require.NoError(t, err)

	marked, err := attendance.MarkAbsentees(testDay(22, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	record, err := attendance.GetTodayRecord(other.ID, testDay(22, 0))
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbsent, record.Status)
	assert.True(t, record.IsManual)
	assert.Nil(t, record.CheckInTime)

	// 结转是幂等的
	marked, err = attendance.MarkAbsentees(testDay(22, 30))
	require.NoError(t, err)
	assert.Equal(t, 0, marked)
}

func TestCreateManualRecord(t *testing.T) {
	attendance, _, employee, _ := newAttendanceFixture(t)

	record, err := attendance.CreateManualRecord(employee.ID, testDay(0, 0), models.StatusWorkFromHome, "远程办公审批单 A-102", 1)
	require.NoError(t, err)

	assert.Equal(t, models.StatusWorkFromHome, record.Status)
	assert.True(t, record.IsManual)
	assert.Equal(t, "远程办公审批单 A-102", record.ManualReason)

	// 同日已有记录时补录被唯一索引拒绝
	_, err = attendance.CreateManualRecord(employee.ID, testDay(0, 0), models.StatusPresent, "重复补录", 1)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestCreateManualRecordInvalidStatus(t *testing.T) {
	attendance, _, employee, _ := newAttendanceFixture(t)

	_, err := attendance.CreateManualRecord(employee.ID, testDay(0, 0), models.AttendanceStatus("vacation"), "年假", 1)
	assert.Error(t, err)
}

func TestCheckOutSameRecordConcurrently(t *testing.T) {
	attendance, _, employee, base := newAttendanceFixture(t)

	_, err := attendance.CheckIn(employee.ID, liveFrames(base, 3, 0.05), officePoint, 10, testDay(8, 50))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = attendance.CheckOut(employee.ID, nil, officePoint, 10, testDay(17, 50))
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if assert.ErrorIs(t, err, ErrAlreadyCheckedOut) {
			rejected++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)
}
