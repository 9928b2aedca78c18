package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"literacy-hub/backend/config"
)

const issuer = "literacy-hub"

// Token types.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims carried by access and refresh tokens.
type Claims struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	GradeLevel int    `json:"grade_level,omitempty"` // 0 when the account is not bound to a grade
	TokenType  string `json:"token_type"`
	jwtv5.RegisteredClaims
}

// Manager signs and parses tokens.
type Manager struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewManager creates a Manager.
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:          []byte(cfg.JWTSecret),
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
	}
}

// AccessTokenTTL lifetime of access tokens.
func (m *Manager) AccessTokenTTL() time.Duration { return m.accessTokenTTL }

// GenerateAccessToken signs an access token.
func (m *Manager) GenerateAccessToken(userID, role string, gradeLevel int) (string, error) {
	return m.sign(userID, role, gradeLevel, TokenTypeAccess, m.accessTokenTTL)
}

// GenerateRefreshToken signs a refresh token.
func (m *Manager) GenerateRefreshToken(userID, role string, gradeLevel int) (string, error) {
	return m.sign(userID, role, gradeLevel, TokenTypeRefresh, m.refreshTokenTTL)
}

func (m *Manager) sign(userID, role string, gradeLevel int, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:     userID,
		Role:       role,
		GradeLevel: gradeLevel,
		TokenType:  tokenType,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken verifies the signature and expiry of a token.
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// TokenTypeQuizStart marks the token a student gets when opening a timed quiz.
const TokenTypeQuizStart = "quiz_start"

// StartClaims carried by quiz start tokens. IssuedAt is the server-side start.
type StartClaims struct {
	QuizID    string `json:"quiz_id"`
	TokenType string `json:"token_type"`
	jwtv5.RegisteredClaims
}

// GenerateStartToken signs the moment a student opened quizID. The token
// stays parseable for ttl, after which the attempt is over anyway.
func (m *Manager) GenerateStartToken(quizID string, startedAt time.Time, ttl time.Duration) (string, error) {
	claims := StartClaims{
		QuizID:    quizID,
		TokenType: TokenTypeQuizStart,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(startedAt),
			ExpiresAt: jwtv5.NewNumericDate(startedAt.Add(ttl)),
			Issuer:    issuer,
		},
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(m.secret)
}

// ParseStartToken returns the signed start time of a quiz attempt. Expiry
// is not checked here: callers compare the start against their own clock.
func (m *Manager) ParseStartToken(tokenString, quizID string) (time.Time, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &StartClaims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithoutClaimsValidation())
	if err != nil {
		return time.Time{}, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*StartClaims)
	if !ok || claims.TokenType != TokenTypeQuizStart || claims.QuizID != quizID || claims.IssuedAt == nil {
		return time.Time{}, ErrTokenInvalid
	}
	return claims.IssuedAt.Time, nil
}
