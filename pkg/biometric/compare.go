package biometric

import "math"

// Comparison 表示一次人脸描述子比对的结果
type Comparison struct {
	IsMatch    bool    `json:"is_match"`
	Distance   float64 `json:"distance"`
	Confidence int     `json:"confidence"` // 0-100
}

// Compare 将采集到的描述子与档案中存储的描述子进行比对。
// 判定采用双重门限：欧氏距离必须小于 threshold，且归一化置信度必须不低于
// minConfidence，避免距离刚好落在阈值附近时产生不稳定的判定。
// 任何非法输入（空向量、维度不一致、非有限数值、threshold<=0）都返回
// 软失败结果而不是错误，调用方总是能拿到一个明确的判定。
func Compare(candidate, stored []float64, threshold float64, minConfidence int) Comparison {
	noMatch := Comparison{IsMatch: false, Distance: math.Inf(1), Confidence: 0}

	if threshold <= 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return noMatch
	}
	if !ValidVector(candidate) || !ValidVector(stored) || len(candidate) != len(stored) {
		return noMatch
	}

	distance := euclideanDistance(candidate, stored)
	confidence := clampConfidence(math.Round((1 - distance/threshold) * 100))

	return Comparison{
		IsMatch:    distance < threshold && confidence >= minConfidence,
		Distance:   distance,
		Confidence: confidence,
	}
}

// AverageVector 对若干同维度向量做逐元素平均，用于多姿态注册和
// 多帧验证。输入为空、维度不一致或包含非法向量时返回 nil。
func AverageVector(vectors ...[]float64) []float64 {
	if len(vectors) == 0 || !ValidVector(vectors[0]) {
		return nil
	}

	dim := len(vectors[0])
	avg := make([]float64, dim)
	for _, v := range vectors {
		if !ValidVector(v) || len(v) != dim {
			return nil
		}
		for i, x := range v {
			avg[i] += x
		}
	}
	for i := range avg {
		avg[i] /= float64(len(vectors))
	}
	return avg
}

// ValidVector 检查向量是否非空且所有元素都是有限实数
func ValidVector(v []float64) bool {
	if len(v) == 0 {
		return false
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// euclideanDistance 计算两个等长向量的欧氏距离
func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func clampConfidence(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
