package code

// HTTP状态码.
const (
	// StatusOK - 200: 成功.
	StatusOK = 200
	// StatusBadRequest - 400: 请求参数错误.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: 未授权.
	StatusUnauthorized = 401
	// StatusForbidden - 403: 禁止访问.
	StatusForbidden = 403
	// StatusNotFound - 404: 资源不存在.
	StatusNotFound = 404
	// StatusConflict - 409: 状态冲突.
	StatusConflict = 409
	// StatusTooManyRequests - 429: 请求过多.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: 服务器内部错误.
	StatusInternalServerError = 500
	// StatusServiceUnavailable - 503: 依赖服务不可用.
	StatusServiceUnavailable = 503
)

// 通用错误码 (100xxx).
const (
	// ErrSuccess - 200: 成功.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: 未知错误.
	ErrUnknown
	// ErrBind - 400: 请求参数绑定错误.
	ErrBind
	// ErrValidation - 400: 请求参数验证错误.
	ErrValidation
	// ErrTokenInvalid - 401: 令牌无效.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: 请求频率过高.
	ErrTooManyRequests
)

// 用户与认证相关错误码 (101xxx).
const (
	// ErrUserNotFound - 404: 用户不存在.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 400: 用户已存在.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: 用户密码错误.
	ErrUserPasswordIncorrect
	// ErrPermissionDenied - 403: 没有操作权限.
	ErrPermissionDenied
)

// 员工相关错误码 (102xxx).
const (
	// ErrEmployeeNotFound - 404: 员工不存在.
	ErrEmployeeNotFound int = iota + 102000
	// ErrEmployeeAlreadyExist - 400: 员工已存在.
	ErrEmployeeAlreadyExist
	// ErrEmployeeInactive - 400: 员工已停用.
	ErrEmployeeInactive
)

// 生物特征相关错误码 (103xxx).
const (
	// ErrInvalidDescriptor - 400: 人脸描述子维度错误或包含非法数值.
	ErrInvalidDescriptor int = iota + 103000
	// ErrNoFaceDetected - 400: 未检测到人脸.
	ErrNoFaceDetected
	// ErrMultipleFacesDetected - 400: 检测到多张人脸.
	ErrMultipleFacesDetected
	// ErrProfileNotEnrolled - 404: 未登记有效的人脸档案.
	ErrProfileNotEnrolled
	// ErrIdentityNotVerified - 401: 人脸比对或活体检测未通过.
	ErrIdentityNotVerified
	// ErrFaceServiceUnavailable - 503: 人脸服务超时或不可用.
	ErrFaceServiceUnavailable
)

// 考勤相关错误码 (104xxx).
const (
	// ErrOutOfFence - 403: 不在打卡围栏范围内.
	ErrOutOfFence int = iota + 104000
	// ErrAlreadyCheckedIn - 409: 今日已签到.
	ErrAlreadyCheckedIn
	// ErrNotCheckedInYet - 409: 今日尚未签到.
	ErrNotCheckedInYet
	// ErrAlreadyCheckedOut - 409: 今日已签退.
	ErrAlreadyCheckedOut
	// ErrAttendanceNotFound - 404: 考勤记录不存在.
	ErrAttendanceNotFound
)

// 数据库相关错误码 (105xxx).
const (
	// ErrDatabase - 500: 数据库错误.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: 记录不存在.
	ErrRecordNotFound
)
