package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFaceService(url string) InterfaceFaceService {
	cfg := testConfig()
	cfg.FaceServiceURL = url
	cfg.FaceServiceTimeout = 1
	return NewFaceService(cfg)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, payload interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func TestAnalyzeFrameSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/analyze-frame-base64", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.NotEmpty(t, r.PostFormValue("image"))

		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"success":       true,
			"face_detected": true,
			"quality":       map[string]interface{}{"passed": true, "score": 0.87},
			"embedding":     []float64{0.1, 0.2, 0.3},
			"bbox":          []float64{10, 20, 110, 140},
		})
	}))
	defer server.Close()

	analysis, err := newFaceService(server.URL).AnalyzeFrame(context.Background(), "aW1hZ2U=")
	require.NoError(t, err)

	assert.True(t, analysis.FaceDetected)
	assert.False(t, analysis.MultipleFaces)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, analysis.Embedding)
	assert.InDelta(t, 0.87, analysis.Quality, 0.001)
}

func TestAnalyzeFrameNoFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 无人脸：处理成功但未检出
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"success":       true,
			"face_detected": false,
			"message":       "No face detected in frame",
		})
	}))
	defer server.Close()

	analysis, err := newFaceService(server.URL).AnalyzeFrame(context.Background(), "aW1hZ2U=")
	require.NoError(t, err)

	assert.False(t, analysis.FaceDetected)
	assert.False(t, analysis.MultipleFaces)
	assert.Empty(t, analysis.Embedding)
}

func TestAnalyzeFrameMultipleFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 多人脸：检出但处理失败，与无人脸是可区分的信号
		writeJSON(t, w, http.StatusBadRequest, map[string]interface{}{
			"success":       false,
			"face_detected": true,
			"message":       "Multiple faces detected",
		})
	}))
	defer server.Close()

	analysis, err := newFaceService(server.URL).AnalyzeFrame(context.Background(), "aW1hZ2U=")
	require.NoError(t, err)

	assert.True(t, analysis.FaceDetected)
	assert.True(t, analysis.MultipleFaces)
	assert.Empty(t, analysis.Embedding)
}

func TestAnalyzeFrameTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	_, err := newFaceService(server.URL).AnalyzeFrame(context.Background(), "aW1hZ2U=")
	assert.ErrorIs(t, err, ErrFaceServiceUnavailable)
}

func TestAnalyzeFrameServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]interface{}{})
	}))
	defer server.Close()

	_, err := newFaceService(server.URL).AnalyzeFrame(context.Background(), "aW1hZ2U=")
	assert.ErrorIs(t, err, ErrFaceServiceUnavailable)
}

func TestAnalyzeFrameConnectionRefused(t *testing.T) {
	// 先拿到一个未监听的地址
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newFaceService(url).AnalyzeFrame(context.Background(), "aW1hZ2U=")
	assert.ErrorIs(t, err, ErrFaceServiceUnavailable)
}

func TestAnalyzeFramesStopOnError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			writeJSON(t, w, http.StatusInternalServerError, map[string]interface{}{})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"success":       true,
			"face_detected": true,
			"quality":       map[string]interface{}{"score": 0.9},
			"embedding":     []float64{0.1},
		})
	}))
	defer server.Close()

	_, err := newFaceService(server.URL).AnalyzeFrames(context.Background(), []string{"a", "b", "c"})
	assert.ErrorIs(t, err, ErrFaceServiceUnavailable)
	assert.Equal(t, 2, calls)
}

func TestRegisterMultiAngleSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/register-multi-angle", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.NotEmpty(t, r.PostFormValue("front_image"))
		require.NotEmpty(t, r.PostFormValue("left_image"))
		require.NotEmpty(t, r.PostFormValue("right_image"))

		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"success": true,
			"embeddings": map[string][]float64{
				"front": {0.1, 0.2},
				"left":  {0.2, 0.3},
				"right": {0.3, 0.4},
			},
			"average_embedding": []float64{0.2, 0.3},
			"quality_scores": map[string]float64{
				"front": 0.9, "left": 0.8, "right": 0.85,
			},
		})
	}))
	defer server.Close()

	registration, err := newFaceService(server.URL).RegisterMultiAngle(context.Background(), "f", "l", "r")
	require.NoError(t, err)

	assert.Len(t, registration.PoseVectors, 3)
	assert.Equal(t, []float64{0.2, 0.3}, registration.AverageVector)
	assert.InDelta(t, 0.9, registration.QualityScores["front"], 0.001)
}

func TestRegisterMultiAngleNoFace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "No face detected in left image",
		})
	}))
	defer server.Close()

	_, err := newFaceService(server.URL).RegisterMultiAngle(context.Background(), "f", "l", "r")
	assert.ErrorIs(t, err, ErrNoFaceDetected)
}

func TestRegisterMultiAngleMultipleFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Multiple faces detected in front image",
		})
	}))
	defer server.Close()

	_, err := newFaceService(server.URL).RegisterMultiAngle(context.Background(), "f", "l", "r")
	assert.ErrorIs(t, err, ErrMultipleFacesDetected)
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"status": "healthy"})
	}))
	defer server.Close()

	assert.NoError(t, newFaceService(server.URL).Health(context.Background()))
}

func TestHealthUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := newFaceService(server.URL).Health(context.Background())
	assert.ErrorIs(t, err, ErrFaceServiceUnavailable)
}
