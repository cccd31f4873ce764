package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Tonkaw007/Pabu/internal/auth"
	"github.com/Tonkaw007/Pabu/internal/models"
)

func newEngine(tokens *auth.TokenManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()))

	private := r.Group("/", Authenticate(tokens))
	private.GET("/me", func(c *gin.Context) {
		id, _ := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id.UserID})
	})
	private.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	r := newEngine(tokens)

	userToken, _, _ := tokens.Issue(&models.User{ID: 7, Role: models.RoleUser})
	adminToken, _, _ := tokens.Issue(&models.User{ID: 1, Role: models.RoleAdmin})

	cases := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic " + userToken, http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"user", "/me", "Bearer " + userToken, http.StatusOK},
		{"user on admin route", "/admin", "Bearer " + userToken, http.StatusForbidden},
		{"admin", "/admin", "Bearer " + adminToken, http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.header != "" {
			req.Header.Set(AuthorizationHeaderKey, tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: status %d, want %d (%s)", tc.name, w.Code, tc.want, w.Body.String())
		}
	}
}

func TestErrorBodyCarriesRequestID(t *testing.T) {
	r := newEngine(auth.NewTokenManager("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["request_id"] != "req-123" || body["code"] != "unauthorized" || body["message"] == "" {
		t.Fatalf("unexpected error body: %v", body)
	}
	if w.Header().Get(RequestIDHeader) != "req-123" {
		t.Fatalf("request id header not echoed")
	}
}
