package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"literacy-hub/backend/config"
	"literacy-hub/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── mocks ──

type mockBlacklist struct {
	revoked map[string]bool
	err     error
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return m.revoked[jti], m.err
}

type mockLimiter struct {
	hits  map[string]int
	err   error
	limit int
}

func (m *mockLimiter) CheckRateLimit(_ context.Context, key string, limit int, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.hits[key]++
	m.limit = limit
	return m.hits[key] <= limit, nil
}

type mockReporter struct {
	errors    []error
	criticals []error
}

func (m *mockReporter) Error(err error, _ map[string]interface{}) { m.errors = append(m.errors, err) }
func (m *mockReporter) Critical(err error, _ map[string]interface{}) {
	m.criticals = append(m.criticals, err)
}
func (m *mockReporter) Close() error { return nil }

func newJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-with-enough-length-123",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// JWTAuth / RoleAuth
// ═══════════════════════════════════════════════════════════

func TestJWTAuth(t *testing.T) {
	mgr := newJWT()
	access, _ := mgr.GenerateAccessToken("u-1", "coordinator", 4)
	refresh, _ := mgr.GenerateRefreshToken("u-1", "coordinator", 4)
	revokedToken, _ := mgr.GenerateAccessToken("u-1", "coordinator", 4)
	revokedClaims, _ := mgr.ParseToken(revokedToken)

	bl := &mockBlacklist{revoked: map[string]bool{revokedClaims.ID: true}}

	tests := []struct {
		name      string
		header    string
		blacklist TokenBlacklist
		want      int
	}{
		{"valid", "Bearer " + access, bl, http.StatusOK},
		{"missing header", "", bl, http.StatusUnauthorized},
		{"bad scheme", "Token " + access, bl, http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", bl, http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, bl, http.StatusUnauthorized},
		{"revoked", "Bearer " + revokedToken, bl, http.StatusUnauthorized},
		{"revoked but redis down", "Bearer " + revokedToken, nil, http.StatusOK},
		{"blacklist error", "Bearer " + access, &mockBlacklist{err: errors.New("conn refused")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", JWTAuth(mgr, tt.blacklist), func(c *gin.Context) {
				if c.GetString(ctxUserID) != "u-1" || c.GetInt(ctxGradeLevel) != 4 {
					t.Errorf("caller not injected: %v %v", c.GetString(ctxUserID), c.GetInt(ctxGradeLevel))
				}
				if c.GetString(ctxTokenJTI) == "" || c.GetTime(ctxTokenExp).IsZero() {
					t.Error("token info not injected")
				}
				c.Status(http.StatusOK)
			})
			req := httptest.NewRequest("GET", "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if w := serve(r, req); w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{"master_teacher", http.StatusOK},
		{"super_admin", http.StatusOK},
		{"teacher", http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		r := gin.New()
		r.GET("/x", func(c *gin.Context) {
			if tt.role != "" {
				c.Set(ctxRole, tt.role)
			}
		}, RoleAuth("master_teacher", "super_admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

		if w := serve(r, httptest.NewRequest("GET", "/x", nil)); w.Code != tt.want {
			t.Errorf("role %q: expected %d, got %d", tt.role, tt.want, w.Code)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// RateLimit / BodyLimit
// ═══════════════════════════════════════════════════════════

func TestRateLimit(t *testing.T) {
	lim := &mockLimiter{hits: map[string]int{}}
	r := gin.New()
	r.POST("/login", RateLimit(lim, 2, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(r, httptest.NewRequest("POST", "/login", nil)).Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("unexpected codes %v", codes)
	}
	for key := range lim.hits {
		if !strings.HasSuffix(key, ":/login") {
			t.Errorf("key should carry the route, got %q", key)
		}
	}
}

func TestRateLimit_Degraded(t *testing.T) {
	for name, lim := range map[string]RateLimiter{
		"nil limiter": nil,
		"redis error": &mockLimiter{err: errors.New("down")},
	} {
		r := gin.New()
		r.POST("/login", RateLimit(lim, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
		for i := 0; i < 3; i++ {
			if w := serve(r, httptest.NewRequest("POST", "/login", nil)); w.Code != http.StatusOK {
				t.Errorf("%s: expected pass-through, got %d", name, w.Code)
			}
		}
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := serve(r, httptest.NewRequest("POST", "/x", strings.NewReader("small"))); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest("POST", "/x", strings.NewReader("this body is too long"))); w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RequestID / CORS / Recovery
// ═══════════════════════════════════════════════════════════

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	if w := serve(r, req); w.Header().Get("X-Request-ID") != "abc-123" || w.Body.String() != "abc-123" {
		t.Errorf("expected client id to be reused, got %q", w.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("a", 100))
	if w := serve(r, req); len(w.Header().Get("X-Request-ID")) != 36 {
		t.Errorf("expected a generated uuid, got %q", w.Header().Get("X-Request-ID"))
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := serve(r, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("preflight failed: %d %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	if w := serve(r, req); w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
}

func TestRecovery(t *testing.T) {
	rep := &mockReporter{}
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop(), rep))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest("GET", "/panic", nil))
	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "50000") {
		t.Errorf("expected 500 envelope, got %d %s", w.Code, w.Body.String())
	}
	if len(rep.criticals) != 1 {
		t.Errorf("expected panic to be reported, got %d", len(rep.criticals))
	}

	serve(r, httptest.NewRequest("GET", "/fail", nil))
	serve(r, httptest.NewRequest("GET", "/ok", nil))
	if len(rep.errors) != 1 || !strings.Contains(rep.errors[0].Error(), "/fail answered 503") {
		t.Errorf("expected one 5xx report, got %v", rep.errors)
	}
}
