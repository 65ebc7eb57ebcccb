// Package http exposes the authentication use cases over the service's
// own routing engine.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/meridianbank/authd/internal/application"
	"github.com/meridianbank/authd/internal/domain"
	"github.com/meridianbank/authd/internal/router"
)

// Handler is the HTTP adapter entrypoint for the auth use cases.
// Keeping only the application dependency here preserves clean adapter
// boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) healthz(c *router.Ctx, _ router.Next) {
	c.SendSuccess(http.StatusOK, nil, "ok")
}

// authGuard verifies the access token and stashes its claims in the
// request context for the guarded handler. A missing token fails the same
// way an absent one does at verification, with 403.
func (h *Handler) authGuard(c *router.Ctx, next router.Next) {
	raw := accessTokenFromRequest(c.Request)
	claims, err := h.service.ValidateAccess(c.Request.Context(), raw)
	if err != nil {
		writeErr(c, "auth_guard", err)
		return
	}

	ctx := context.WithValue(c.Request.Context(), ctxKeyClaims, claims)
	ctx = context.WithValue(ctx, ctxKeyTokenRaw, raw)
	c.Request = c.Request.WithContext(ctx)
	next()
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: request body must contain a single JSON value", domain.ErrInvalidInput)
	}
	return nil
}
