package controllers

import (
	"faceclock-http-service/internal/domain/services"
	"faceclock-http-service/internal/domain/services/container"
	"faceclock-http-service/internal/error/code"
	"faceclock-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceJWTController 定义认证控制器接口
type InterfaceJWTController interface {
	Login()
}

// JWTController 处理身份验证请求
type JWTController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewJWTController 创建一个新的认证控制器
func NewJWTController(ctx *gin.Context, container *container.ServiceContainer) *JWTController {
	return &JWTController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest 表示登录请求。员工以手机号作为用户名
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin"`
	Password string `json:"password" binding:"required" example:"admin123"`
}

// LoginData 表示登录成功后返回的数据
type LoginData struct {
	Token    string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	UserID   uint   `json:"user_id" example:"1"`
	Role     string `json:"role" example:"admin"`
	Username string `json:"username" example:"admin"`
}

// ErrorResponse 表示错误响应
type ErrorResponse struct {
	Code    int         `json:"code" example:"100002"`
	Message string      `json:"message" example:"请求参数绑定错误"`
	Data    interface{} `json:"data"`
}

// HandleJWTFunc 返回一个处理认证请求的Gin处理函数
func HandleJWTFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewJWTController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "无效的方法", nil)
		}
	}
}

// Login 处理用户登录
// @Summary      用户登录
// @Description  管理员按用户名登录，员工按手机号登录，返回携带角色的JWT令牌
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "登录请求参数"
// @Success      200  {object}  response.Response{data=LoginData}  "登录成功"
// @Failure      400  {object}  ErrorResponse  "请求参数错误"
// @Failure      401  {object}  ErrorResponse  "用户名或密码错误"
// @Router       /auth/login [post]
func (c *JWTController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.FailWithMessage(c.Ctx, code.ErrBind, "无效的请求参数", nil)
		return
	}

	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	result, err := jwtService.Login(req.Username, req.Password)
	if err != nil {
		response.FailWithMessage(c.Ctx, code.ErrUserPasswordIncorrect, "用户名或密码错误", nil)
		return
	}

	response.Success(c.Ctx, LoginData{
		Token:    result.Token,
		UserID:   result.UserID,
		Role:     result.Role,
		Username: result.Username,
	})
}
