package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meridianbank/authd/internal/domain"
	"github.com/meridianbank/authd/internal/router"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyTokenRaw  ctxKey = "token_raw"
	ctxKeyClaims    ctxKey = "auth_claims"
)

const (
	authCookieName   = "auth_token"
	deviceCookieName = "device_token"
)

func requestIDMiddleware(c *router.Ctx, next router.Next) {
	reqID := c.Request.Header.Get("X-Request-Id")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	c.Header().Set("X-Request-Id", reqID)
	ctx := context.WithValue(c.Request.Context(), ctxKeyRequestID, reqID)
	c.Request = c.Request.WithContext(ctx)
	next()
}

func recoverMiddleware(c *router.Ctx, next router.Next) {
	defer func() {
		if rec := recover(); rec != nil {
			httpLogger().ErrorContext(c.Request.Context(), "panic recovered",
				"operation", "http_panic_recovery",
				"outcome", "failure",
				"request_id", requestIDFromContext(c.Request.Context()),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"panic", rec,
			)
			c.SendError(http.StatusInternalServerError, "internal server error")
		}
	}()
	next()
}

func loggingMiddleware(c *router.Ctx, next router.Next) {
	start := time.Now()
	next()

	statusCode := c.StatusCode()
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	outcome := "success"
	if statusCode >= 400 {
		outcome = "failure"
	}

	fields := []any{
		"operation", "http_request",
		"outcome", outcome,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status_code", statusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", requestIDFromContext(c.Request.Context()),
	}
	switch {
	case statusCode >= 500:
		httpLogger().ErrorContext(c.Request.Context(), "http request completed", fields...)
	case statusCode >= 400:
		httpLogger().WarnContext(c.Request.Context(), "http request completed", fields...)
	default:
		httpLogger().InfoContext(c.Request.Context(), "http request completed", fields...)
	}
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

// accessTokenFromRequest prefers the Authorization header and falls back
// to the auth cookie. Returns "" when neither carries a token.
func accessTokenFromRequest(r *http.Request) string {
	const prefix = "Bearer "
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, prefix) {
		if token := strings.TrimSpace(strings.TrimPrefix(header, prefix)); token != "" {
			return token
		}
	}
	if cookie, err := r.Cookie(authCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func deviceTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(deviceCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func claimsFromContext(ctx context.Context) (domain.AccessPayload, bool) {
	claims, ok := ctx.Value(ctxKeyClaims).(domain.AccessPayload)
	return claims, ok
}

func tokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ctxKeyTokenRaw).(string)
	return token, ok
}
