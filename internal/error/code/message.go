package code

// 错误码消息映射
var codeMessageMap = map[int]string{
	// 通用错误码
	ErrSuccess:      "成功",
	ErrUnknown:      "未知错误",
	ErrBind:         "请求参数绑定错误",
	ErrValidation:   "请求参数验证错误",
	ErrTokenInvalid: "无效的认证令牌",

	// 用户与认证相关错误码
	ErrUserNotFound:          "用户不存在",
	ErrUserAlreadyExist:      "用户已存在",
	ErrUserPasswordIncorrect: "用户密码错误",
	ErrPermissionDenied:      "没有操作权限",

	// 员工相关错误码
	ErrEmployeeNotFound:     "员工不存在",
	ErrEmployeeAlreadyExist: "员工已存在",
	ErrEmployeeInactive:     "员工已停用",

	// 生物特征相关错误码
	ErrInvalidDescriptor:      "人脸描述子无效：维度错误或包含非法数值",
	ErrNoFaceDetected:         "未检测到人脸，请正对摄像头",
	ErrMultipleFacesDetected:  "检测到多张人脸，请确保画面中只有本人",
	ErrProfileNotEnrolled:     "未登记有效的人脸档案，请先完成人脸注册",
	ErrIdentityNotVerified:    "身份验证未通过",
	ErrFaceServiceUnavailable: "人脸识别服务暂时不可用，请稍后重试",

	// 考勤相关错误码
	ErrOutOfFence:         "当前位置不在打卡范围内",
	ErrAlreadyCheckedIn:   "今日已签到，请勿重复签到",
	ErrNotCheckedInYet:    "今日尚未签到，无法签退",
	ErrAlreadyCheckedOut:  "今日已签退，请勿重复签退",
	ErrAttendanceNotFound: "考勤记录不存在",

	// 数据库相关错误码
	ErrDatabase:       "数据库错误",
	ErrRecordNotFound: "记录不存在",
}

// 错误码HTTP状态码映射
var codeStatusMap = map[int]int{
	// 通用错误码
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,

	// 用户与认证相关错误码
	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusBadRequest,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrPermissionDenied:      StatusForbidden,

	// 员工相关错误码
	ErrEmployeeNotFound:     StatusNotFound,
	ErrEmployeeAlreadyExist: StatusBadRequest,
	ErrEmployeeInactive:     StatusBadRequest,

	// 生物特征相关错误码
	ErrInvalidDescriptor:      StatusBadRequest,
	ErrNoFaceDetected:         StatusBadRequest,
	ErrMultipleFacesDetected:  StatusBadRequest,
	ErrProfileNotEnrolled:     StatusNotFound,
	ErrIdentityNotVerified:    StatusUnauthorized,
	ErrFaceServiceUnavailable: StatusServiceUnavailable,

	// 考勤相关错误码
	ErrOutOfFence:         StatusForbidden,
	ErrAlreadyCheckedIn:   StatusConflict,
	ErrNotCheckedInYet:    StatusConflict,
	ErrAlreadyCheckedOut:  StatusConflict,
	ErrAttendanceNotFound: StatusNotFound,

	// 数据库相关错误码
	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
}

// GetMessage 根据错误码获取对应的消息
func GetMessage(errorCode int) string {
	if message, ok := codeMessageMap[errorCode]; ok {
		return message
	}
	return codeMessageMap[ErrUnknown]
}

// GetStatus 根据错误码获取对应的HTTP状态码
func GetStatus(errorCode int) int {
	if status, ok := codeStatusMap[errorCode]; ok {
		return status
	}
	return StatusInternalServerError
}
