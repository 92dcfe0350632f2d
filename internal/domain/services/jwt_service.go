package services

import (
	"errors"
	"fmt"
	"time"

	"faceclock-http-service/internal/domain/models"
	"faceclock-http-service/internal/infrastructure/config"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// InterfaceJWTService 定义JWT服务接口
type InterfaceJWTService interface {
	GenerateToken(userID uint, role string) (string, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
	ExtractClaims(tokenString string) (*JWTClaims, error)
	Login(username, password string) (*LoginResult, error)
}

// LoginResult 表示登录结果
type LoginResult struct {
	Token    string `json:"token"`
	UserID   uint   `json:"user_id"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// JWTService 提供JWT相关服务
type JWTService struct {
	secretKey string
	issuer    string
	DB        *gorm.DB
}

// JWTClaims 定义JWT令牌的声明结构
type JWTClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"` // "admin" 或 "employee"
	jwt.RegisteredClaims
}

// NewJWTService 创建一个新的JWT服务
func NewJWTService(cfg *config.Config, db *gorm.DB) InterfaceJWTService {
	return &JWTService{
		secretKey: cfg.JWTSecretKey,
		issuer:    "faceclock-http-service",
		DB:        db,
	}
}

// GenerateToken 生成JWT令牌
func (s *JWTService) GenerateToken(userID uint, role string) (string, error) {
	// 令牌有效期为24小时
	expirationTime := time.Now().Add(24 * time.Hour)

	claims := &JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ValidateToken 验证JWT令牌
func (s *JWTService) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
}

// ExtractClaims 从令牌中提取声明
func (s *JWTService) ExtractClaims(tokenString string) (*JWTClaims, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("无效的令牌声明")
}

// Login 先按管理员、再按员工尝试登录；员工以手机号作为用户名
func (s *JWTService) Login(username, password string) (*LoginResult, error) {
	var admin models.Admin
	if err := s.DB.Where("username = ?", username).First(&admin).Error; err == nil {
		if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)) != nil {
			return nil, errors.New("用户密码错误")
		}
		token, err := s.GenerateToken(admin.ID, "admin")
		if err != nil {
			return nil, err
		}
		return &LoginResult{Token: token, UserID: admin.ID, Role: "admin", Username: admin.Username}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var employee models.Employee
	if err := s.DB.Where("phone = ?", username).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("用户不存在")
		}
		return nil, err
	}
	if !employee.IsActive() {
		return nil, ErrEmployeeInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(employee.Password), []byte(password)) != nil {
		return nil, errors.New("用户密码错误")
	}

	token, err := s.GenerateToken(employee.ID, "employee")
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, UserID: employee.ID, Role: "employee", Username: employee.Phone}, nil
}
