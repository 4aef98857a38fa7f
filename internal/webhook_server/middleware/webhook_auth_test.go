package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(logger *slog.Logger, token string) *gin.Engine {
		router := gin.New()
		router.Use(WebhookAuth(logger, token))
		router.POST("/webhook", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return router
	}

	t.Run("ValidTokenPasses", func(t *testing.T) {
		logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
		router := newRouter(logger, "super-secret")

		req, _ := http.NewRequest(http.MethodPost, "/webhook", nil)
		req.Header.Set(SecureTokenHeader, "super-secret")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("WrongTokenRejected", func(t *testing.T) {
		var logBuffer bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&logBuffer, nil))
		router := newRouter(logger, "super-secret")

		req, _ := http.NewRequest(http.MethodPost, "/webhook", nil)
		req.Header.Set(SecureTokenHeader, "wrong-token")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		var jsonResponse map[string]interface{}
		err := json.Unmarshal(rr.Body.Bytes(), &jsonResponse)
		require.NoError(t, err)
		errorField, ok := jsonResponse["error"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "UNAUTHORIZED", errorField["code"])
		assert.Equal(t, "Invalid webhook token", errorField["message"])

		assert.Contains(t, logBuffer.String(), "Webhook token mismatch")
	})

	t.Run("MissingTokenRejected", func(t *testing.T) {
		logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
		router := newRouter(logger, "super-secret")

		req, _ := http.NewRequest(http.MethodPost, "/webhook", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("EmptyConfiguredTokenDisablesCheck", func(t *testing.T) {
		logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
		router := newRouter(logger, "")

		req, _ := http.NewRequest(http.MethodPost, "/webhook", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
