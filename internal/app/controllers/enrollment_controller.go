package controllers

import (
	"strconv"

	"faceclock-http-service/internal/domain/services"
	"faceclock-http-service/internal/domain/services/container"
	"faceclock-http-service/internal/error/code"
	"faceclock-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceEnrollmentController 定义人脸档案控制器接口
type InterfaceEnrollmentController interface {
	Enroll()
	EnrollFromImages()
	GetProfile()
	Retire()
}

// EnrollmentController 处理人脸档案相关请求
type EnrollmentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewEnrollmentController 创建一个新的人脸档案控制器
func NewEnrollmentController(ctx *gin.Context, container *container.ServiceContainer) *EnrollmentController {
	return &EnrollmentController{
		Ctx:       ctx,
		Container: container,
	}
}

// EnrollRequest 直接提交各姿态描述子的注册请求
type EnrollRequest struct {
	PoseVectors map[string][]float64 `json:"pose_vectors" binding:"required"`
	Quality     float64              `json:"quality" binding:"gte=0,lte=100"`
}

// EnrollImagesRequest 提交三张姿态图像的注册请求
type EnrollImagesRequest struct {
	FrontImage string `json:"front_image" binding:"required"`
	LeftImage  string `json:"left_image" binding:"required"`
	RightImage string `json:"right_image" binding:"required"`
}

// HandleEnrollmentFunc 返回一个处理人脸档案请求的Gin处理函数
func HandleEnrollmentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewEnrollmentController(ctx, container)

		switch method {
		case "enroll":
			controller.Enroll()
		case "enrollFromImages":
			controller.EnrollFromImages()
		case "getProfile":
			controller.GetProfile()
		case "retire":
			controller.Retire()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *EnrollmentController) enrollmentService() services.InterfaceEnrollmentService {
	return c.Container.GetService("enrollment").(services.InterfaceEnrollmentService)
}

func (c *EnrollmentController) employeeIDParam() (uint, bool) {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID")
		return 0, false
	}
	return uint(id), true
}

// Enroll 用已提取的姿态描述子登记人脸档案
// @Summary      登记人脸档案
// @Description  用前/左/右各姿态的描述子登记或整体替换员工的人脸档案
// @Tags         Enrollment
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "员工ID"
// @Param        request body EnrollRequest true "各姿态描述子"
// @Success      200  {object}  response.Response  "登记成功"
// @Failure      400  {object}  ErrorResponse  "描述子无效"
// @Security     BearerAuth
// @Router       /employees/{id}/biometric [post]
func (c *EnrollmentController) Enroll() {
	employeeID, ok := c.employeeIDParam()
	if !ok {
		return
	}

	var req EnrollRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的请求参数: "+err.Error(), nil)
		return
	}

	profile, err := c.enrollmentService().Enroll(employeeID, req.PoseVectors, req.Quality)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, profile)
}

// EnrollFromImages 用三张姿态图像登记人脸档案
// @Summary      图像登记人脸档案
// @Description  提交前/左/右三张Base64图像，经人脸服务提取描述子后登记
// @Tags         Enrollment
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "员工ID"
// @Param        request body EnrollImagesRequest true "三张姿态图像"
// @Success      200  {object}  response.Response  "登记成功"
// @Failure      400  {object}  ErrorResponse  "图像中无人脸或有多张人脸"
// @Failure      503  {object}  ErrorResponse  "人脸服务不可用"
// @Security     BearerAuth
// @Router       /employees/{id}/biometric/images [post]
func (c *EnrollmentController) EnrollFromImages() {
	employeeID, ok := c.employeeIDParam()
	if !ok {
		return
	}

	var req EnrollImagesRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的请求参数: "+err.Error(), nil)
		return
	}

	profile, err := c.enrollmentService().EnrollFromImages(
		c.Ctx.Request.Context(), employeeID, req.FrontImage, req.LeftImage, req.RightImage)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, profile)
}

// GetProfile 查询员工的人脸档案元信息，不返回描述子本身
// @Summary      人脸档案详情
// @Tags         Enrollment
// @Produce      json
// @Param        id  path  int  true  "员工ID"
// @Success      200  {object}  response.Response  "档案元信息"
// @Failure      404  {object}  ErrorResponse  "未登记人脸档案"
// @Security     BearerAuth
// @Router       /employees/{id}/biometric [get]
func (c *EnrollmentController) GetProfile() {
	employeeID, ok := c.employeeIDParam()
	if !ok {
		return
	}

	profile, err := c.enrollmentService().Lookup(employeeID)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, profile)
}

// Retire 下线员工的人脸档案
// @Summary      下线人脸档案
// @Tags         Enrollment
// @Produce      json
// @Param        id  path  int  true  "员工ID"
// @Success      200  {object}  response.Response  "下线成功"
// @Failure      404  {object}  ErrorResponse  "未登记人脸档案"
// @Security     BearerAuth
// @Router       /employees/{id}/biometric [delete]
func (c *EnrollmentController) Retire() {
	employeeID, ok := c.employeeIDParam()
	if !ok {
		return
	}

	if err := c.enrollmentService().Retire(employeeID); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{"employee_id": employeeID, "active": false})
}
