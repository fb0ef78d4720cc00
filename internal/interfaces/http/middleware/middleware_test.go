package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plexpatrol/plexpatrol/internal/shared/constants"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(logger.Nop()), Recovery(logger.Nop()))
	r.GET("/ok", func(c *gin.Context) {
		id, _ := c.Get(constants.ContextKeyRequestID)
		c.String(http.StatusOK, id.(string))
	})
	r.GET("/boom", func(*gin.Context) { panic("handler exploded") })
	return r
}

func TestRequestID_KeepsCallerValue(t *testing.T) {
	r := newEngine()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(constants.HeaderXRequestID, "req-42")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(constants.HeaderXRequestID))
}

func TestRequestID_GeneratesWhenMissing(t *testing.T) {
	r := newEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Body.String(), 36)
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	r := newEngine()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
