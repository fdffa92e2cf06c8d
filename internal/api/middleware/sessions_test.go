package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupSessionTestEngine(sessions *SessionStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AdminAuthMiddleware(sessions))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestSessionStoreIssueAndValidate(t *testing.T) {
	s := NewSessionStore(time.Hour)
	token := s.Issue()
	assert.True(t, s.Valid(token))
	assert.False(t, s.Valid("other"))

	s.Revoke(token)
	assert.False(t, s.Valid(token))
}

func TestSessionStoreExpiry(t *testing.T) {
	s := NewSessionStore(-time.Second)
	token := s.Issue()
	assert.False(t, s.Valid(token))
}

func TestAdminAuthMiddlewareMissingHeader(t *testing.T) {
	router := setupSessionTestEngine(NewSessionStore(time.Hour))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthMiddlewareMalformedHeader(t *testing.T) {
	router := setupSessionTestEngine(NewSessionStore(time.Hour))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthMiddlewareValidToken(t *testing.T) {
	sessions := NewSessionStore(time.Hour)
	router := setupSessionTestEngine(sessions)
	token := sessions.Issue()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
