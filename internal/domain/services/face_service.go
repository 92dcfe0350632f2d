package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"faceclock-http-service/internal/infrastructure/config"
	"faceclock-http-service/pkg/biometric"
)

// InterfaceFaceService 定义人脸服务（外部特征提取服务）客户端接口
type InterfaceFaceService interface {
	AnalyzeFrame(ctx context.Context, imageBase64 string) (*FrameAnalysis, error)
	AnalyzeFrames(ctx context.Context, framesBase64 []string) ([]FrameAnalysis, error)
	RegisterMultiAngle(ctx context.Context, frontImage, leftImage, rightImage string) (*MultiAngleRegistration, error)
	Health(ctx context.Context) error
}

// FrameAnalysis 单帧分析结果。无人脸与多人脸是与向量结果可区分的
// 显式信号，由上游返回、在此原样透出。
type FrameAnalysis struct {
	FaceDetected  bool      `json:"face_detected"`
	MultipleFaces bool      `json:"multiple_faces"`
	Embedding     []float64 `json:"embedding,omitempty"`
	BBox          []float64 `json:"bbox,omitempty"`
	Quality       float64   `json:"quality"` // 0-1
	Angle         string    `json:"angle,omitempty"`
	CapturedAt    time.Time `json:"captured_at"`
}

// MultiAngleRegistration 多姿态注册结果
type MultiAngleRegistration struct {
	PoseVectors   map[string][]float64 `json:"pose_vectors"`
	AverageVector []float64            `json:"average_vector"`
	QualityScores map[string]float64   `json:"quality_scores"`
}

// FaceService 人脸服务HTTP客户端。图像只在请求内存中转发，
// 提取完特征后不做任何保留。
type FaceService struct {
	Config *config.Config
	client *http.Client
}

// NewFaceService 创建一个新的人脸服务客户端
func NewFaceService(cfg *config.Config) InterfaceFaceService {
	return &FaceService{
		Config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.FaceServiceTimeout) * time.Second,
		},
	}
}

// frameAnalysisResponse 对应人脸服务 /analyze-frame-base64 的响应
type frameAnalysisResponse struct {
	Success      bool `json:"success"`
	FaceDetected bool `json:"face_detected"`
	Quality      struct {
		Passed bool     `json:"passed"`
		Score  float64  `json:"score"`
		Issues []string `json:"issues"`
	} `json:"quality"`
	Embedding     []float64 `json:"embedding"`
	BBox          []float64 `json:"bbox"`
	AngleEstimate string    `json:"angle_estimate"`
	Message       string    `json:"message"`
}

// multiAngleResponse 对应人脸服务 /register-multi-angle 的响应
type multiAngleResponse struct {
	Success          bool                 `json:"success"`
	Embeddings       map[string][]float64 `json:"embeddings"`
	AverageEmbedding []float64            `json:"average_embedding"`
	QualityScores    map[string]float64   `json:"quality_scores"`
	Message          string               `json:"message"`
}

// AnalyzeFrame 分析单帧图像，返回人脸检测信号与描述子。
// 网络错误、超时、非预期状态码一律按上游不可用处理（宁可拒绝）。
func (s *FaceService) AnalyzeFrame(ctx context.Context, imageBase64 string) (*FrameAnalysis, error) {
	form := url.Values{}
	form.Set("image", imageBase64)

	body, status, err := s.postForm(ctx, "/analyze-frame-base64", form)
	if err != nil {
		return nil, err
	}

	var resp frameAnalysisResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: 响应解析失败: %v", ErrFaceServiceUnavailable, err)
	}

	if status != http.StatusOK && status != http.StatusBadRequest {
		return nil, fmt.Errorf("%w: 状态码 %d", ErrFaceServiceUnavailable, status)
	}

	analysis := &FrameAnalysis{
		FaceDetected: resp.FaceDetected,
		Embedding:    resp.Embedding,
		BBox:         resp.BBox,
		Quality:      resp.Quality.Score,
		Angle:        resp.AngleEstimate,
		CapturedAt:   time.Now(),
	}
	// 上游以 success=false 且检测到人脸的组合表示画面中有多张人脸
	if !resp.Success && resp.FaceDetected {
		analysis.MultipleFaces = true
		analysis.Embedding = nil
	}
	return analysis, nil
}

// AnalyzeFrames 按序分析一段帧序列
func (s *FaceService) AnalyzeFrames(ctx context.Context, framesBase64 []string) ([]FrameAnalysis, error) {
	results := make([]FrameAnalysis, 0, len(framesBase64))
	for _, frame := range framesBase64 {
		analysis, err := s.AnalyzeFrame(ctx, frame)
		if err != nil {
			return nil, err
		}
		results = append(results, *analysis)
	}
	return results, nil
}

// RegisterMultiAngle 提交前/左/右三张姿态图像做注册提取。
// 单姿态的无人脸、多人脸、质量不合格以及跨姿态不同人的拒绝都发生在
// 上游，这里把拒绝原因映射为对应的哨兵错误。
func (s *FaceService) RegisterMultiAngle(ctx context.Context, frontImage, leftImage, rightImage string) (*MultiAngleRegistration, error) {
	form := url.Values{}
	form.Set("front_image", frontImage)
	form.Set("left_image", leftImage)
	form.Set("right_image", rightImage)

	body, status, err := s.postForm(ctx, "/register-multi-angle", form)
	if err != nil {
		return nil, err
	}

	var resp multiAngleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: 响应解析失败: %v", ErrFaceServiceUnavailable, err)
	}

	if !resp.Success {
		switch {
		case strings.Contains(resp.Message, "No face"):
			return nil, fmt.Errorf("%w: %s", ErrNoFaceDetected, resp.Message)
		case strings.Contains(resp.Message, "Multiple faces"):
			return nil, fmt.Errorf("%w: %s", ErrMultipleFacesDetected, resp.Message)
		case status == http.StatusBadRequest:
			return nil, fmt.Errorf("注册图像被拒绝: %s", resp.Message)
		default:
			return nil, fmt.Errorf("%w: %s", ErrFaceServiceUnavailable, resp.Message)
		}
	}

	if !biometric.ValidVector(resp.AverageEmbedding) {
		return nil, ErrInvalidDescriptor
	}

	return &MultiAngleRegistration{
		PoseVectors:   resp.Embeddings,
		AverageVector: resp.AverageEmbedding,
		QualityScores: resp.QualityScores,
	}, nil
}

// Health 探测人脸服务可用性
func (s *FaceService) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Config.FaceServiceURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFaceServiceUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFaceServiceUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: 状态码 %d", ErrFaceServiceUnavailable, resp.StatusCode)
	}
	return nil
}

// postForm 发送表单请求并读取响应体
func (s *FaceService) postForm(ctx context.Context, path string, form url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.Config.FaceServiceURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFaceServiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		// 超时与连接错误：上游无应答不等于“无人脸”，整次验证失败
		return nil, 0, fmt.Errorf("%w: %v", ErrFaceServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrFaceServiceUnavailable, err)
	}
	return body, resp.StatusCode, nil
}
