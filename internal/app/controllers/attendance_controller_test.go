package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindPunchRequest(t *testing.T, body string) (PunchRequest, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest(http.MethodPost, "/api/attendance/check-in", strings.NewReader(body))
	ctx.Request.Header.Set("Content-Type", "application/json")

	var req PunchRequest
	err := ctx.ShouldBindJSON(&req)
	return req, err
}

func TestPunchRequestAcceptsZeroCoordinates(t *testing.T) {
	// 赤道/本初子午线上的 0 坐标是合法定位，不能被参数校验挡掉
	req, err := bindPunchRequest(t, `{"frames":["aGk="],"latitude":0,"longitude":0,"accuracy":5}`)
	require.NoError(t, err)
	require.NotNil(t, req.Latitude)
	require.NotNil(t, req.Longitude)
	assert.Zero(t, *req.Latitude)
	assert.Zero(t, *req.Longitude)
}

func TestPunchRequestRejectsMissingCoordinates(t *testing.T) {
	_, err := bindPunchRequest(t, `{"frames":["aGk="],"accuracy":5}`)
	assert.Error(t, err)
}

func TestPunchRequestRejectsOutOfRangeLatitude(t *testing.T) {
	_, err := bindPunchRequest(t, `{"frames":["aGk="],"latitude":91,"longitude":0,"accuracy":5}`)
	assert.Error(t, err)
}
