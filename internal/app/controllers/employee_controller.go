package controllers

import (
	"strconv"

	"faceclock-http-service/internal/domain/models"
	"faceclock-http-service/internal/domain/services"
	"faceclock-http-service/internal/domain/services/container"
	"faceclock-http-service/internal/error/code"
	"faceclock-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceEmployeeController 定义员工控制器接口
type InterfaceEmployeeController interface {
	GetEmployees()
	GetEmployee()
	CreateEmployee()
	UpdateEmployee()
	DeactivateEmployee()
}

// EmployeeController 处理员工相关请求
type EmployeeController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewEmployeeController 创建一个新的员工控制器
func NewEmployeeController(ctx *gin.Context, container *container.ServiceContainer) *EmployeeController {
	return &EmployeeController{
		Ctx:       ctx,
		Container: container,
	}
}

// CreateEmployeeRequest 创建员工请求
type CreateEmployeeRequest struct {
	Name       string `json:"name" binding:"required" example:"张三"`
	Email      string `json:"email" binding:"omitempty,email" example:"zhangsan@example.com"`
	Phone      string `json:"phone" binding:"required,phone_cn" example:"13800138000"`
	Password   string `json:"password" binding:"required,min=6" example:"secret123"`
	Department string `json:"department" example:"研发部"`
	Position   string `json:"position" example:"工程师"`
}

// UpdateEmployeeRequest 更新员工请求，零值字段不更新
type UpdateEmployeeRequest struct {
	Name       string `json:"name" example:"张三"`
	Email      string `json:"email" binding:"omitempty,email" example:"zhangsan@example.com"`
	Password   string `json:"password" binding:"omitempty,min=6"`
	Department string `json:"department" example:"研发部"`
	Position   string `json:"position" example:"高级工程师"`
	Status     string `json:"status" binding:"omitempty,oneof=active inactive" example:"active"`
}

// HandleEmployeeFunc 返回一个处理员工请求的Gin处理函数
func HandleEmployeeFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewEmployeeController(ctx, container)

		switch method {
		case "getEmployees":
			controller.GetEmployees()
		case "getEmployee":
			controller.GetEmployee()
		case "createEmployee":
			controller.CreateEmployee()
		case "updateEmployee":
			controller.UpdateEmployee()
		case "deactivateEmployee":
			controller.DeactivateEmployee()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

func (c *EmployeeController) employeeService() services.InterfaceEmployeeService {
	return c.Container.GetService("employee").(services.InterfaceEmployeeService)
}

// GetEmployees 获取员工列表
// @Summary      员工列表
// @Description  分页获取员工列表，可按姓名或手机号搜索
// @Tags         Employee
// @Produce      json
// @Param        pageNum   query  int     false  "页码"     default(1)
// @Param        pageSize  query  int     false  "每页数量"  default(10)
// @Param        search    query  string  false  "姓名或手机号关键字"
// @Success      200  {object}  response.Response  "员工列表"
// @Failure      500  {object}  ErrorResponse  "服务器错误"
// @Security     BearerAuth
// @Router       /employees [get]
func (c *EmployeeController) GetEmployees() {
	pageNum, _ := strconv.Atoi(c.Ctx.DefaultQuery("pageNum", "1"))
	pageSize, _ := strconv.Atoi(c.Ctx.DefaultQuery("pageSize", "10"))
	search := c.Ctx.Query("search")

	employees, total, err := c.employeeService().GetAllEmployees(pageNum, pageSize, search)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{
		"list":       employees,
		"pagination": models.NewPaginationResult(total, pageNum, pageSize),
	})
}

// GetEmployee 获取单个员工
// @Summary      员工详情
// @Tags         Employee
// @Produce      json
// @Param        id  path  int  true  "员工ID"
// @Success      200  {object}  response.Response  "员工详情"
// @Failure      404  {object}  ErrorResponse  "员工不存在"
// @Security     BearerAuth
// @Router       /employees/{id} [get]
func (c *EmployeeController) GetEmployee() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID")
		return
	}

	employee, err := c.employeeService().GetEmployeeByID(uint(id))
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, employee)
}

// CreateEmployee 创建员工
// @Summary      创建员工
// @Tags         Employee
// @Accept       json
// @Produce      json
// @Param        request body CreateEmployeeRequest true "员工信息"
// @Success      200  {object}  response.Response  "创建成功"
// @Failure      400  {object}  ErrorResponse  "参数错误或手机号已存在"
// @Security     BearerAuth
// @Router       /employees [post]
func (c *EmployeeController) CreateEmployee() {
	var req CreateEmployeeRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的请求参数: "+err.Error(), nil)
		return
	}

	employee := &models.Employee{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Password:   req.Password,
		Department: req.Department,
		Position:   req.Position,
		Status:     "active",
	}
	if err := c.employeeService().CreateEmployee(employee); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, employee)
}

// UpdateEmployee 更新员工
// @Summary      更新员工
// @Tags         Employee
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "员工ID"
// @Param        request body UpdateEmployeeRequest true "待更新字段"
// @Success      200  {object}  response.Response  "更新后的员工"
// @Failure      404  {object}  ErrorResponse  "员工不存在"
// @Security     BearerAuth
// @Router       /employees/{id} [put]
func (c *EmployeeController) UpdateEmployee() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID")
		return
	}

	var req UpdateEmployeeRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrValidation, "无效的请求参数: "+err.Error(), nil)
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Password != "" {
		updates["password"] = req.Password
	}
	if req.Department != "" {
		updates["department"] = req.Department
	}
	if req.Position != "" {
		updates["position"] = req.Position
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	employee, err := c.employeeService().UpdateEmployee(uint(id), updates)
	if err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, employee)
}

// DeactivateEmployee 停用员工，同时下线其人脸档案
// @Summary      停用员工
// @Description  员工停用后不能再打卡，其人脸档案同步下线
// @Tags         Employee
// @Produce      json
// @Param        id  path  int  true  "员工ID"
// @Success      200  {object}  response.Response  "停用成功"
// @Failure      404  {object}  ErrorResponse  "员工不存在"
// @Security     BearerAuth
// @Router       /employees/{id} [delete]
func (c *EmployeeController) DeactivateEmployee() {
	id, err := strconv.ParseUint(c.Ctx.Param("id"), 10, 32)
	if err != nil {
		response.ParamError(c.Ctx, "无效的员工ID")
		return
	}

	if err := c.employeeService().DeactivateEmployee(uint(id)); err != nil {
		failWithServiceError(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{"id": id, "status": "inactive"})
}
