package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"literacy-hub/backend/internal/service"
	"literacy-hub/backend/pkg/response"
)

// Context keys set by middleware.JWTAuth.
const (
	CtxUserID     = "user_id"
	CtxRole       = "role"
	CtxGradeLevel = "grade_level"
	CtxTokenJTI   = "token_jti"
	CtxTokenExp   = "token_exp"
)

// MustGetUserID extracts user_id from the gin context. When the auth
// middleware did not inject it a 401 is written and ok is false; callers
// return immediately in that case.
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetCaller extracts the authenticated caller.
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Caller{}, false
	}
	role := c.GetString(CtxRole)
	if role == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return service.Caller{}, false
	}
	return service.Caller{UserID: userID, Role: role, GradeLevel: c.GetInt(CtxGradeLevel)}, true
}

// tokenInfo jti and expiry of the access token used for this request.
func tokenInfo(c *gin.Context) (string, time.Time) {
	return c.GetString(CtxTokenJTI), c.GetTime(CtxTokenExp)
}
