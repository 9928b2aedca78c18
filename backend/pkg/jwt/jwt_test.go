package jwt

import (
	"testing"
	"time"

	"literacy-hub/backend/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1", "coordinator", 3)
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("expected UserID=user-1, got %s", claims.UserID)
	}
	if claims.Role != "coordinator" {
		t.Errorf("expected Role=coordinator, got %s", claims.Role)
	}
	if claims.GradeLevel != 3 {
		t.Errorf("expected GradeLevel=3, got %d", claims.GradeLevel)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("expected TokenType=access, got %s", claims.TokenType)
	}
	if claims.Issuer != "literacy-hub" {
		t.Errorf("expected Issuer=literacy-hub, got %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("jti must not be empty")
	}
}

func TestGenerateRefreshToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("user-1", "teacher", 2)
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("expected TokenType=refresh, got %s", claims.TokenType)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 6*24*time.Hour || ttl > 8*24*time.Hour {
		t.Errorf("refresh ttl should be about 7 days, got %v", ttl)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	if _, err := m.ParseToken("invalid.token.string"); err != ErrTokenInvalid {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _ := m1.GenerateAccessToken("user-1", "super_admin", 0)
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("token signed with another secret must not verify")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Millisecond,
		RefreshTokenTTL: time.Millisecond,
	})

	token, _ := m.GenerateAccessToken("user-1", "teacher", 1)
	time.Sleep(1100 * time.Millisecond)

	_, err := m.ParseToken(token)
	if err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestStartToken(t *testing.T) {
	m := newTestManager()
	started := time.Now().Add(-20 * time.Minute).Truncate(time.Second)

	token, err := m.GenerateStartToken("quiz-1", started, 11*time.Minute)
	if err != nil {
		t.Fatalf("GenerateStartToken failed: %v", err)
	}

	got, err := m.ParseStartToken(token, "quiz-1")
	if err != nil {
		t.Fatalf("ParseStartToken failed on an expired token: %v", err)
	}
	if !got.Equal(started) {
		t.Errorf("expected start %v, got %v", started, got)
	}

	if _, err := m.ParseStartToken(token, "quiz-2"); err != ErrTokenInvalid {
		t.Errorf("other quiz: expected ErrTokenInvalid, got %v", err)
	}
	access, _ := m.GenerateAccessToken("user-1", "teacher", 3)
	if _, err := m.ParseStartToken(access, ""); err != ErrTokenInvalid {
		t.Errorf("access token: expected ErrTokenInvalid, got %v", err)
	}
	if _, err := m.ParseStartToken(token+"x", "quiz-1"); err != ErrTokenInvalid {
		t.Errorf("tampered token: expected ErrTokenInvalid, got %v", err)
	}
}
