package http

import (
	"github.com/meridianbank/authd/internal/router"
)

// NewRouter registers the service routes and middleware stack.
// Centralizing routes here keeps auth and error behavior consistent
// across endpoints.
func NewRouter(handler *Handler) *router.Router {
	root := router.New("", requestIDMiddleware, recoverMiddleware, loggingMiddleware)
	root.Get("/healthz", handler.healthz)

	api := root.SubRouter("/api")

	auth := api.SubRouter("/auth")
	auth.Post("/register", handler.register)
	auth.Post("/login", handler.login)
	auth.Post("/refresh", handler.refresh)
	auth.Post("/logout", handler.authGuard, handler.logout)
	auth.Post("/2fa", handler.authGuard, handler.twoFactorEnroll)
	auth.Post("/2fa/login", handler.twoFactorLogin)
	auth.Delete("/2fa", handler.authGuard, handler.twoFactorDisable)
	auth.Get("/validate-email", handler.authGuard, handler.emailVerificationRequest)
	auth.Delete("/account", handler.authGuard, handler.deleteAccount)

	recovery := api.SubRouter("/recovery")
	recovery.Get("/email-validation", handler.emailVerify)
	recovery.Post("/password", handler.passwordRecoveryRequest)
	recovery.Put("/password", handler.passwordReset)

	return root
}
