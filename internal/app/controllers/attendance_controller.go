package controllers

import (
	"errors"
	"strconv"
	"time"

	"faceclock-http-service/internal/app/middleware"
	"faceclock-http-service/internal/domain/models"
	"faceclock-http-service/internal/domain/services"
	"faceclock-http-service/internal/domain/services/container"
	"faceclock-http-service/internal/error/code"
	"faceclock-http-service/internal/error/response"
	"faceclock-http-service/pkg/biometric"
	"faceclock-http-service/pkg/geo"

	"github.com/gin-gonic/gin"
)

// InterfaceAttendanceController 定义考勤控制器接口
type InterfaceAttendanceController interface {
	CheckIn()
	CheckOut()
	Today()
	MyRecords()
	ListRecords()
	CreateManualRecord()
}

// AttendanceController 处理考勤相关请求
type AttendanceController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAttendanceController 创建一个新的考勤控制器
func NewAttendanceController(ctx *gin.Context, container *container.ServiceContainer) *AttendanceController {
	return &AttendanceController{
		Ctx:       ctx,
		Container: container,
	}
}

// PunchRequest 打卡请求。frames 为连续采集的Base64图像帧，
// 签到至少需要三帧用于活体检测。经纬度用指针区分"未提交"和
// 合法的 0 坐标。
type PunchRequest struct {
	Frames    []string `json:"frames" binding:"required,min=1,dive,required"`
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
	Accuracy  float64  `json:"accuracy" binding:"gte=0"`
}

// ManualRecordRequest 人工补录请求
type ManualRecordRequest struct {
	EmployeeID uint   `json:"employee_id" binding:"required"`
	Date       string `json:"date" binding:"required" example:"2026-08-28"`
	Status     string `json:"status" binding:"required,oneof=present late half_day absent work_from_home"`
	Reason     string `json:"reason" binding:"required,max=255"`
}

// HandleAttendanceFunc 返回一个处理考勤请求的Gin处理函数
func HandleAttendanceFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAttendanceController(ctx, container)

		switch method {
		case "checkIn":
			controller.CheckIn()
		case "checkOut":
			controller.CheckOut()
		case "today":
			controller.Today()
		case "myRecords":
			controller.MyRecords()
		case "listRecords":
			controller.ListRecords()
		case "createManualRecord":
			controller.CreateManualRecord()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *AttendanceController) attendanceService() services.InterfaceAttendanceService {
	return c.Container.GetService("attendance").(services.InterfaceAttendanceService)
}

// analyzeFrames 把图像帧交给人脸服务提取描述子。任何一帧无人脸或
// 有多张人脸都整体拒绝，不做部分放行。
func (c *AttendanceController) analyzeFrames(images []string) ([]biometric.Frame, error) {
	faceService := c.Container.GetService("face").(services.InterfaceFaceService)
	analyses, err := faceService.AnalyzeFrames(c.Ctx.Request.Context(), images)
	if err != nil {
		return nil, err
	}

	frames := make([]biometric.Frame, 0, len(analyses))
	for _, analysis := range analyses {
		if !analysis.FaceDetected {
			return nil, services.ErrNoFaceDetected
		}
		if analysis.MultipleFaces {
			return nil, services.ErrMultipleFacesDetected
		}
		frames = append(frames, biometric.Frame{
			Embedding: analysis.Embedding,
			Quality:   analysis.Quality,
			Timestamp: analysis.CapturedAt,
		})
	}
	return frames, nil
}

// currentEmployeeID 从令牌上下文读取当前员工ID
func (c *AttendanceController) currentEmployeeID() (uint, bool) {
	id, ok := middleware.CurrentUserID(c.Ctx)
	if !ok {
		response.Unauthorized(c.Ctx)
		return 0, false
	}
	return id, true
}

// CheckIn 员工签到
// @Summary      签到
// @Description  提交连续图像帧与定位完成人脸验证签到，每人每天只能签到一次
// @Tags         Attendance
// @Accept       json
// @Produce      json
// @Param        request body PunchRequest true "图像帧与定位"
// @Success      200  {object}  response.Response  "签到成功，返回当日记录"
// @Failure      401  {object}  ErrorResponse  "人脸验证未通过"
// @Failure      403  {object}  ErrorResponse  "不在打卡范围内"
// @Failure      409  {object}  ErrorResponse  "今日已签到"
// @Failure      503  {object}  ErrorResponse  "人脸服务不可用"
// @Security     BearerAuth
// @Router       /attendance/check-in [post]
func (c *AttendanceController) CheckIn() {
	employeeID, ok := c.currentEmployeeID()
	if !ok {
		return
	}

	var req PunchRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的请求参数: "+err.Error(), nil)
		return
	}

	frames, err := c.analyzeFrames(req.Frames)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	record, err := c.attendanceService().CheckIn(employeeID, frames,
		geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}, req.Accuracy, time.Now())
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, record)
}

// CheckOut 员工签退
// @Summary      签退
// @Description  对当日已签到的记录执行签退并结算工作时长，是否再次人脸验证由配置决定
// @Tags         Attendance
// @Accept       json
// @Produce      json
// @Param        request body PunchRequest true "图像帧与定位"
// @Success      200  {object}  response.Response  "签退成功，返回当日记录"
// @Failure      403  {object}  ErrorResponse  "不在打卡范围内"
// @Failure      409  {object}  ErrorResponse  "尚未签到或已签退"
// @Security     BearerAuth
// @Router       /attendance/check-out [post]
func (c *AttendanceController) CheckOut() {
	employeeID, ok := c.currentEmployeeID()
	if !ok {
		return
	}

	var req PunchRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的请求参数: "+err.Error(), nil)
		return
	}

	// 是否需要人脸验证由服务层配置决定，这里只负责提取提交的帧
	var frames []biometric.Frame
	var err error
	if len(req.Frames) > 0 {
		frames, err = c.analyzeFrames(req.Frames)
		if err != nil {
			failWithServiceError(c.Ctx, err)
			return
		}
	}

	record, err := c.attendanceService().CheckOut(employeeID, frames,
		geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}, req.Accuracy, time.Now())
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, record)
}

// Today 查询当前员工今天的考勤记录
// @Summary      今日考勤
// @Tags         Attendance
// @Produce      json
// @Success      200  {object}  response.Response  "当日记录，未签到时为空"
// @Security     BearerAuth
// @Router       /attendance/today [get]
func (c *AttendanceController) Today() {
	employeeID, ok := c.currentEmployeeID()
	if !ok {
		return
	}

	record, err := c.attendanceService().GetTodayRecord(employeeID, time.Now())
	if err != nil {
		// 今天还没有记录不是错误态
		if errors.Is(err, services.ErrAttendanceNotFound) {
			response.Success(c.Ctx, nil)
			return
		}
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, record)
}

// MyRecords 查询当前员工的考勤历史
// @Summary      我的考勤记录
// @Tags         Attendance
// @Produce      json
// @Param        from      query  string  false  "起始日期 2026-08-01"
// @Param        to        query  string  false  "结束日期 2026-08-31"
// @Param        pageNum   query  int     false  "页码"     default(1)
// @Param        pageSize  query  int     false  "每页数量"  default(10)
// @Success      200  {object}  response.Response  "考勤记录列表"
// @Security     BearerAuth
// @Router       /attendance/records [get]
func (c *AttendanceController) MyRecords() {
	employeeID, ok := c.currentEmployeeID()
	if !ok {
		return
	}

	pageNum, _ := strconv.Atoi(c.Ctx.DefaultQuery("pageNum", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("pageSize", "10"))

	var from, to time.Time
	if value := c.Ctx.Query("from"); value != "" {
		parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
		if err != nil {
			response.ParamError(c.Ctx, "无效的起始日期")
			return
		}
		from = parsed
	}
	if value := c.Ctx.Query("to"); value != "" {
		parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
		if err != nil {
			response.ParamError(c.Ctx, "无效的结束日期")
			return
		}
		to = parsed
	}

	records, pagination, err := c.attendanceService().GetEmployeeRecords(employeeID, from, to, pageNum, pageSize)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{
		"list":       records,
		"pagination": pagination,
	})
}

// ListRecords 管理端查询考勤记录
// @Summary      考勤记录列表
// @Description  管理员分页查询全员考勤记录，可按日期和状态过滤
// @Tags         Attendance
// @Produce      json
// @Param        date      query  string  false  "日期 2026-08-28"
// @Param        status    query  string  false  "状态" Enums(present, late, half_day, absent, work_from_home)
// @Param        pageNum   query  int     false  "页码"     default(1)
// @Param        pageSize  query  int     false  "每页数量"  default(10)
// @Success      200  {object}  response.Response  "考勤记录列表"
// @Security     BearerAuth
// @Router       /admin/attendance [get]
func (c *AttendanceController) ListRecords() {
	pageNum, _ := strconv.Atoi(c.Ctx.DefaultQuery("pageNum", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("pageSize", "10"))
	status := c.Ctx.Query("status")

	var day *time.Time
	if value := c.Ctx.Query("date"); value != "" {
		parsed, err := time.ParseInLocation("2006-01-02", value, time.Local)
		if err != nil {
			response.ParamError(c.Ctx, "无效的日期")
			return
		}
		day = &parsed
	}

	records, pagination, err := c.attendanceService().GetRecords(day, status, pageNum, pageSize)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{
		"list":       records,
		"pagination": pagination,
	})
}

// CreateManualRecord 管理员人工补录考勤
// @Summary      人工补录考勤
// @Description  管理员为员工补录考勤记录，work_from_home 只能通过补录产生
// @Tags         Attendance
// @Accept       json
// @Produce      json
// @Param        request body ManualRecordRequest true "补录信息"
// @Success      200  {object}  response.Response  "补录成功"
// @Failure      409  {object}  ErrorResponse  "该员工当日已有记录"
// @Security     BearerAuth
// @Router       /admin/attendance/manual [post]
func (c *AttendanceController) CreateManualRecord() {
	operatorID, ok := c.currentEmployeeID()
	if !ok {
		return
	}

	var req ManualRecordRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的请求参数: "+err.Error(), nil)
		return
	}

	day, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		response.ParamError(c.Ctx, "无效的日期")
		return
	}

	record, err := c.attendanceService().CreateManualRecord(
		req.EmployeeID, day, models.AttendanceStatus(req.Status), req.Reason, operatorID)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, record)
}
