package controllers

import (
	"errors"

	"faceclock-http-service/internal/domain/services"
	"faceclock-http-service/internal/error/code"
	"faceclock-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// failWithServiceError 把服务层错误统一映射为错误码响应。
// 验证失败与围栏拒绝携带各自的判定数值，供客户端向用户反馈。
func failWithServiceError(ctx *gin.Context, err error) {
	var verificationErr *services.VerificationError
	if errors.As(err, &verificationErr) {
		response.FailWithMessage(ctx, code.ErrIdentityNotVerified, verificationErr.Error(), verificationErr)
		return
	}

	var fenceErr *services.OutOfFenceError
	if errors.As(err, &fenceErr) {
		response.FailWithMessage(ctx, code.ErrOutOfFence, fenceErr.Error(), fenceErr)
		return
	}

	switch {
	case errors.Is(err, services.ErrEmployeeNotFound):
		response.Fail(ctx, code.ErrEmployeeNotFound, nil)
	case errors.Is(err, services.ErrEmployeeInactive):
		response.Fail(ctx, code.ErrEmployeeInactive, nil)
	case errors.Is(err, services.ErrProfileNotEnrolled):
		response.Fail(ctx, code.ErrProfileNotEnrolled, nil)
	case errors.Is(err, services.ErrInvalidDescriptor):
		response.FailWithMessage(ctx, code.ErrInvalidDescriptor, err.Error(), nil)
	case errors.Is(err, services.ErrNoFaceDetected):
		response.Fail(ctx, code.ErrNoFaceDetected, nil)
	case errors.Is(err, services.ErrMultipleFacesDetected):
		response.Fail(ctx, code.ErrMultipleFacesDetected, nil)
	case errors.Is(err, services.ErrFaceServiceUnavailable):
		response.Fail(ctx, code.ErrFaceServiceUnavailable, nil)
	case errors.Is(err, services.ErrAlreadyCheckedIn):
		response.Fail(ctx, code.ErrAlreadyCheckedIn, nil)
	case errors.Is(err, services.ErrNotCheckedInYet):
		response.Fail(ctx, code.ErrNotCheckedInYet, nil)
	case errors.Is(err, services.ErrAlreadyCheckedOut):
		response.Fail(ctx, code.ErrAlreadyCheckedOut, nil)
	case errors.Is(err, services.ErrAttendanceNotFound):
		response.Fail(ctx, code.ErrAttendanceNotFound, nil)
	default:
		response.FailWithMessage(ctx, code.ErrDatabase, "数据库错误: "+err.Error(), nil)
	}
}
