package http

import (
	"net/http"

	"github.com/meridianbank/authd/internal/application"
	"github.com/meridianbank/authd/internal/router"
)

// Frontend routes the mailed links point at. The recovery token is
// appended as the link's token query parameter.
const (
	emailValidationPath  = "/recovery/email-validation"
	passwordRecoveryPath = "/recovery/password"
)

func (h *Handler) emailVerificationRequest(c *router.Ctx, _ router.Next) {
	claims, ok := claimsFromContext(c.Request.Context())
	if !ok {
		c.SendError(http.StatusForbidden, "token is required")
		return
	}

	err := h.service.EmailVerificationRequest(c.Request.Context(), claims.UserID, emailValidationPath)
	if err != nil {
		writeErr(c, "email_verification_request", err)
		return
	}
	c.SendSuccess(http.StatusOK, nil, "Verification email sent")
}

func (h *Handler) emailVerify(c *router.Ctx, _ router.Next) {
	if err := h.service.EmailVerify(c.Request.Context(), c.Query("token")); err != nil {
		writeErr(c, "email_verify", err)
		return
	}
	c.SendSuccess(http.StatusOK, nil, "Email verified successfully")
}

func (h *Handler) passwordRecoveryRequest(c *router.Ctx, _ router.Next) {
	var req application.PasswordRecoveryRequest
	if err := decodeBody(c.Request, &req); err != nil {
		writeErr(c, "password_recovery_request", err)
		return
	}

	err := h.service.PasswordRecoveryRequest(c.Request.Context(), req, passwordRecoveryPath)
	if err != nil {
		writeErr(c, "password_recovery_request", err)
		return
	}
	c.SendSuccess(http.StatusOK, nil, "If the account exists, a recovery link has been sent")
}

func (h *Handler) passwordReset(c *router.Ctx, _ router.Next) {
	var req application.PasswordResetRequest
	if err := decodeBody(c.Request, &req); err != nil {
		writeErr(c, "password_reset", err)
		return
	}
	req.Token = c.Query("token")

	if err := h.service.PasswordReset(c.Request.Context(), req); err != nil {
		writeErr(c, "password_reset", err)
		return
	}
	c.SendSuccess(http.StatusOK, nil, "Password reset successful. You can now login with your new password.")
}
