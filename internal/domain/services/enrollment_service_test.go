package services

import (
	"math"
	"testing"

	"faceclock-http-service/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnrollmentFixture(t *testing.T) (InterfaceEnrollmentService, *models.Employee) {
	t.Helper()

	db := setupTestDB(t)
	enrollment := NewEnrollmentService(db, testConfig(), nil, nil)
	employee := createTestEmployee(t, db, "13900139001")
	return enrollment, employee
}

func TestEnrollCreatesProfile(t *testing.T) {
	enrollment, employee := newEnrollmentFixture(t)

	profile, err := enrollment.Enroll(employee.ID, map[string][]float64{
		"front": testVector(0.1),
		"left":  testVector(0.2),
		"right": testVector(0.3),
	}, 85)
	require.NoError(t, err)

	assert.Equal(t, employee.ID, profile.EmployeeID)
	assert.Equal(t, testVectorDim, profile.VectorDim)
	assert.InDelta(t, 85, profile.Quality, 0.001)
	assert.True(t, profile.Active)

	// 平均向量是各姿态的逐元素平均
	avg, err := profile.DecodeAvgVector()
	require.NoError(t, err)
	require.Len(t, avg, testVectorDim)
	for _, v := range avg {
		assert.InDelta(t, 0.2, v, 1e-9)
	}

	poses, err := profile.DecodePoseVectors()
	require.NoError(t, err)
	assert.Len(t, poses, 3)
}

func TestEnrollRejectsWrongDimension(t *testing.T) {
	enrollment, employee := newEnrollmentFixture(t)

	short := make([]float64, testVectorDim-1)
	_, err := enrollment.Enroll(employee.ID, map[string][]float64{
		"front": testVector(0.1),
		"left":  short,
	}, 85)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	// 任何一个姿态不合法都不留下档案
	_, err = enrollment.Lookup(employee.ID)
	assert.ErrorIs(t, err, ErrProfileNotEnrolled)
}

func TestEnrollRejectsNaN(t *testing.T) {
	enrollment, employee := newEnrollmentFixture(t)

	poisoned := testVector(0.1)
	poisoned[7] = math.NaN()
	_, err := enrollment.Enroll(employee.ID, map[string][]float64{"front": poisoned}, 85)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestEnrollReplacesExistingProfile(t *testing.T) {
	enrollment, employee := newEnrollmentFixture(t)
	db := enrollment.(*EnrollmentService).DB

	enrollTestProfile(t, enrollment, employee.ID, testVector(0.1))

	profile, err := enrollment.Enroll(employee.ID, map[string][]float64{
		"front": testVector(0.5),
	}, 70)
	require.NoError(t, err)

	// 重新注册整体替换，不与旧档案合并，也不产生第二行
	var count int64
	require.NoError(t, db.Model(&models.BiometricProfile{}).
		Where("employee_id = ?", employee.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	avg, err := profile.DecodeAvgVector()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, avg[0], 1e-9)
}

func TestEnrollUnknownEmployee(t *testing.T) {
	enrollment, _ := newEnrollmentFixture(t)

	_, err := enrollment.Enroll(9999, map[string][]float64{"front": testVector(0.1)}, 85)
	assert.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestEnrollInactiveEmployee(t *testing.T) {
	enrollment, employee := newEnrollmentFixture(t)
	db := enrollment.(*EnrollmentService).DB

	require.NoError(t, db.Model(&models.Employee{}).
		Where("id = ?", employee.ID).Update("status", "inactive").Error)

	_, err := enrollment.Enroll(employee.ID, map[string][]float64{"front": testVector(0.1)}, 85)
	assert.ErrorIs(t, err, ErrEmployeeInactive)
}

func TestRetireProfile(t *testing.T) {
	enrollment, employee := newEnrollmentFixture(t)

	enrollTestProfile(t, enrollment, employee.ID, testVector(0.1))
	require.NoError(t, enrollment.Retire(employee.ID))

	// 下线后档案不可再用于验证
	_, err := enrollment.Lookup(employee.ID)
	assert.ErrorIs(t, err, ErrProfileNotEnrolled)

	// 重复下线与未登记同样处理
	assert.ErrorIs(t, enrollment.Retire(employee.ID), ErrProfileNotEnrolled)
}

func TestReenrollAfterRetire(t *testing.T) {
	enrollment, employee := newEnrollmentFixture(t)

	enrollTestProfile(t, enrollment, employee.ID, testVector(0.1))
	require.NoError(t, enrollment.Retire(employee.ID))

	profile, err := enrollment.Enroll(employee.ID, map[string][]float64{"front": testVector(0.4)}, 80)
	require.NoError(t, err)
	assert.True(t, profile.Active)

	found, err := enrollment.Lookup(employee.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, found.ID)
}

func TestEnrollQualityClamped(t *testing.T) {
	enrollment, employee := newEnrollmentFixture(t)

	profile, err := enrollment.Enroll(employee.ID, map[string][]float64{"front": testVector(0.1)}, 150)
	require.NoError(t, err)
	assert.InDelta(t, 100, profile.Quality, 0.001)
}
