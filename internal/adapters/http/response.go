package http

import (
	"errors"
	"net/http"

	"github.com/meridianbank/authd/internal/domain"
	"github.com/meridianbank/authd/internal/router"
)

// mapDomainError translates a use-case failure into a status code and a
// client-safe message. Internal failures keep a generic message; the cause
// was already logged at the use-case boundary.
func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrRequired2FA),
		errors.Is(err, domain.ErrInvalid2FA),
		errors.Is(err, domain.ErrNotEnabled),
		errors.Is(err, domain.ErrSessionExpired),
		errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrMissingToken),
		errors.Is(err, domain.ErrInvalidToken):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrEmailExists),
		errors.Is(err, domain.ErrIdentityNumberExists),
		errors.Is(err, domain.ErrEmailVerified),
		errors.Is(err, domain.ErrTwoFactorExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrEmailVerificationExpired),
		errors.Is(err, domain.ErrEmailRecoveryExpired),
		errors.Is(err, domain.ErrPasswordRecoveryExpired):
		return http.StatusGone, err.Error()
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func writeErr(c *router.Ctx, operation string, err error) {
	status, msg := mapDomainError(err)
	logHTTPOperationError(c.Request.Context(), operation, status, msg, err)
	c.SendError(status, msg)
}
