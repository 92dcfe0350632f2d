package biometric

import (
	"fmt"
	"time"
)

// Frame 表示视频验证中单帧的分析结果
type Frame struct {
	Embedding []float64 `json:"embedding"`
	Quality   float64   `json:"quality"` // 0-1，由人脸服务给出的质量/防伪分
	Timestamp time.Time `json:"timestamp"`
}

// LivenessPolicy 活体检测策略
type LivenessPolicy struct {
	MinFrames       int     // 参与聚合的最少有效帧数
	MinMovement     float64 // 相邻帧描述子平均距离的下界，低于则视为静态照片回放
	MaxMovement     float64 // 平均距离的上界，高于则视为采集不一致
	MinScore        float64 // 平均质量/防伪分的下限
	MinFrameQuality float64 // 单帧基础质量门槛，低于则该帧被剔除
}

// LivenessResult 活体检测结论
type LivenessResult struct {
	Passed   bool    `json:"passed"`
	Score    float64 `json:"score"` // 0-1
	Reason   string  `json:"reason,omitempty"`
	Excluded int     `json:"excluded"` // 因质量不合格被剔除的帧数
}

// AssessLiveness 对一段按时间排序的帧序列做活体判定。
// 判定由三项检查组成：有效帧数达标、相邻帧描述子移动量落在区间内
// （静止为照片回放、抖动过大为采集异常，二者都不通过）、平均防伪分
// 不低于下限。Score 为通过检查的比例。所有异常情况一律判不通过。
func AssessLiveness(frames []Frame, policy LivenessPolicy) LivenessResult {
	if len(frames) == 0 {
		return LivenessResult{Passed: false, Score: 0, Reason: "没有可用的视频帧"}
	}

	// 剔除基础质量不合格的帧，但保留剔除计数
	valid := make([]Frame, 0, len(frames))
	for _, f := range frames {
		if f.Quality >= policy.MinFrameQuality && ValidVector(f.Embedding) {
			valid = append(valid, f)
		}
	}
	excluded := len(frames) - len(valid)

	// 超过半数帧被剔除时直接失败
	if excluded*2 > len(frames) {
		return LivenessResult{
			Passed:   false,
			Score:    0,
			Reason:   fmt.Sprintf("超过半数帧质量不合格（%d/%d）", excluded, len(frames)),
			Excluded: excluded,
		}
	}

	if len(valid) < policy.MinFrames {
		return LivenessResult{
			Passed:   false,
			Score:    0,
			Reason:   fmt.Sprintf("有效帧数不足（%d < %d）", len(valid), policy.MinFrames),
			Excluded: excluded,
		}
	}

	dim := len(valid[0].Embedding)
	var totalMovement float64
	for i := 1; i < len(valid); i++ {
		if len(valid[i].Embedding) != dim {
			return LivenessResult{
				Passed:   false,
				Score:    0,
				Reason:   "帧描述子维度不一致",
				Excluded: excluded,
			}
		}
		totalMovement += euclideanDistance(valid[i-1].Embedding, valid[i].Embedding)
	}
	meanMovement := totalMovement / float64(len(valid)-1)

	var totalQuality float64
	for _, f := range valid {
		totalQuality += f.Quality
	}
	meanQuality := totalQuality / float64(len(valid))

	movementOK := meanMovement >= policy.MinMovement && meanMovement <= policy.MaxMovement
	qualityOK := meanQuality >= policy.MinScore

	passed := 1 // 帧数检查到这里一定通过
	reason := ""
	if movementOK {
		passed++
	} else if meanMovement < policy.MinMovement {
		reason = "帧间无变化，疑似照片回放"
	} else {
		reason = "帧间变化过大，采集不稳定"
	}
	if qualityOK {
		passed++
	} else if reason == "" {
		reason = "防伪评分低于下限"
	}

	return LivenessResult{
		Passed:   movementOK && qualityOK,
		Score:    float64(passed) / 3,
		Reason:   reason,
		Excluded: excluded,
	}
}
