package biometric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func makeVector(dim int, fill float64) []float64 {
	v := make([]float64, dim)
	for i := range v {
		v[i] = fill
	}
	return v
}

func TestCompareIdenticalVectors(t *testing.T) {
	v := makeVector(128, 0.25)

	result := Compare(v, v, 0.9, 70)

	assert.True(t, result.IsMatch)
	assert.Equal(t, 0.0, result.Distance)
	assert.Equal(t, 100, result.Confidence)
}

func TestCompareIdenticalVectorsAnyPositiveThreshold(t *testing.T) {
	v := makeVector(128, -1.5)

	for _, threshold := range []float64{0.001, 0.5, 1, 10} {
		result := Compare(v, v, threshold, 70)
		assert.True(t, result.IsMatch, "threshold=%v", threshold)
		assert.Equal(t, 100, result.Confidence, "threshold=%v", threshold)
	}
}

func TestCompareDifferentVectors(t *testing.T) {
	a := makeVector(128, 0)
	b := makeVector(128, 0)
	b[0] = 0.3 // 距离 0.3

	result := Compare(a, b, 0.9, 70)

	assert.True(t, result.IsMatch)
	assert.InDelta(t, 0.3, result.Distance, 1e-9)
	// (1 - 0.3/0.9) * 100 = 66.67 -> 67
	assert.Equal(t, 67, result.Confidence)

	// 同样的距离在更严的置信度门槛下不通过
	strict := Compare(a, b, 0.9, 70)
	assert.Equal(t, 67, strict.Confidence)
	gated := Compare(a, b, 0.9, 80)
	assert.False(t, gated.IsMatch)
}

func TestCompareDoubleGate(t *testing.T) {
	// 距离略低于阈值，但归一化置信度过低，双重门限应判不匹配
	a := makeVector(64, 0)
	b := makeVector(64, 0)
	b[0] = 0.85

	result := Compare(a, b, 0.9, 70)

	assert.False(t, result.IsMatch)
	assert.Less(t, result.Distance, 0.9)
	assert.Less(t, result.Confidence, 70)
}

func TestCompareLengthMismatch(t *testing.T) {
	result := Compare(makeVector(128, 1), makeVector(512, 1), 0.9, 70)

	assert.False(t, result.IsMatch)
	assert.True(t, math.IsInf(result.Distance, 1))
	assert.Equal(t, 0, result.Confidence)
}

func TestCompareInvalidInput(t *testing.T) {
	v := makeVector(128, 1)
	withNaN := makeVector(128, 1)
	withNaN[5] = math.NaN()

	cases := []struct {
		name       string
		candidate  []float64
		stored     []float64
		threshold  float64
	}{
		{"nil candidate", nil, v, 0.9},
		{"nil stored", v, nil, 0.9},
		{"empty candidate", []float64{}, v, 0.9},
		{"NaN element", withNaN, v, 0.9},
		{"zero threshold", v, v, 0},
		{"negative threshold", v, v, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Compare(tc.candidate, tc.stored, tc.threshold, 70)
			assert.False(t, result.IsMatch)
			assert.True(t, math.IsInf(result.Distance, 1))
			assert.Equal(t, 0, result.Confidence)
		})
	}
}

func TestCompareDeterministic(t *testing.T) {
	a := makeVector(128, 0.1)
	b := makeVector(128, 0.2)

	first := Compare(a, b, 0.9, 70)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compare(a, b, 0.9, 70))
	}
}

func TestAverageVector(t *testing.T) {
	avg := AverageVector(
		[]float64{1, 2, 3},
		[]float64{3, 4, 5},
		[]float64{5, 6, 7},
	)

	assert.Equal(t, []float64{3, 4, 5}, avg)
}

func TestAverageVectorInvalid(t *testing.T) {
	assert.Nil(t, AverageVector())
	assert.Nil(t, AverageVector([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Nil(t, AverageVector([]float64{1, math.Inf(1)}))
}
