package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/meridianbank/authd/internal/application"
	"github.com/meridianbank/authd/internal/domain"
	"github.com/meridianbank/authd/internal/router"
)

func (h *Handler) register(c *router.Ctx, _ router.Next) {
	var req application.RegisterRequest
	if err := decodeBody(c.Request, &req); err != nil {
		writeErr(c, "register", err)
		return
	}
	if err := h.service.CreateAccount(c.Request.Context(), req); err != nil {
		writeErr(c, "register", err)
		return
	}
	c.SendSuccess(http.StatusCreated, nil, "Account created successfully")
}

func (h *Handler) login(c *router.Ctx, _ router.Next) {
	var req application.LoginRequest
	if err := decodeBody(c.Request, &req); err != nil {
		writeErr(c, "login", err)
		return
	}
	req.DeviceToken = deviceTokenFromRequest(c.Request)

	pair, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		writeErr(c, "login", err)
		return
	}
	c.SendSuccess(http.StatusOK, pair, "")
}

func (h *Handler) refresh(c *router.Ctx, _ router.Next) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(c.Request, &req); err != nil {
		writeErr(c, "refresh", err)
		return
	}

	accessToken, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeErr(c, "refresh", err)
		return
	}
	c.SendSuccess(http.StatusOK, map[string]string{"accessToken": accessToken}, "")
}

func (h *Handler) logout(c *router.Ctx, _ router.Next) {
	accessToken, _ := tokenFromContext(c.Request.Context())

	var req struct {
		RefreshToken string `json:"refreshToken,omitempty"`
	}
	// The body is optional and ContentLength is -1 for chunked requests,
	// so look at the payload itself before deciding to decode.
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeErr(c, "logout", fmt.Errorf("%w: unreadable body", domain.ErrInvalidInput))
		return
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		if err := decodeBody(c.Request, &req); err != nil {
			writeErr(c, "logout", err)
			return
		}
	}

	if err := h.service.Logout(c.Request.Context(), accessToken, req.RefreshToken); err != nil {
		writeErr(c, "logout", err)
		return
	}
	c.SendSuccess(http.StatusOK, nil, "Logged out successfully")
}

func (h *Handler) twoFactorEnroll(c *router.Ctx, _ router.Next) {
	claims, ok := claimsFromContext(c.Request.Context())
	if !ok {
		c.SendError(http.StatusForbidden, "token is required")
		return
	}

	image, err := h.service.CreateTwoFactorAuth(c.Request.Context(), claims.UserID)
	if err != nil {
		writeErr(c, "two_factor_enroll", err)
		return
	}
	c.SendSuccess(http.StatusCreated, map[string]string{"qr": image}, "")
}

func (h *Handler) twoFactorLogin(c *router.Ctx, _ router.Next) {
	var req application.TwoFactorLoginRequest
	if err := decodeBody(c.Request, &req); err != nil {
		writeErr(c, "two_factor_login", err)
		return
	}

	res, err := h.service.LoginTwoFactor(c.Request.Context(), req)
	if err != nil {
		writeErr(c, "two_factor_login", err)
		return
	}

	if res.DeviceToken != "" {
		c.SetCookie(&http.Cookie{
			Name:     deviceCookieName,
			Value:    res.DeviceToken,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
	c.SendSuccess(http.StatusOK, res.Tokens, "")
}

func (h *Handler) twoFactorDisable(c *router.Ctx, _ router.Next) {
	claims, ok := claimsFromContext(c.Request.Context())
	if !ok {
		c.SendError(http.StatusForbidden, "token is required")
		return
	}

	if err := h.service.DeleteTwoFactorAuth(c.Request.Context(), claims.UserID); err != nil {
		writeErr(c, "two_factor_disable", err)
		return
	}
	c.SendSuccess(http.StatusOK, nil, "Two factor auth disabled")
}

func (h *Handler) deleteAccount(c *router.Ctx, _ router.Next) {
	claims, ok := claimsFromContext(c.Request.Context())
	if !ok {
		c.SendError(http.StatusForbidden, "token is required")
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), claims.UserID); err != nil {
		writeErr(c, "delete_account", err)
		return
	}
	c.SendSuccess(http.StatusOK, nil, "Account deleted")
}
