package middleware

import (
	"net/http"

	"github.com/nowestinterior/backend/internal/auth"
	"github.com/nowestinterior/backend/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type AuthMiddlewareHandler struct {
	loginChecker auth.Checker
}

func NewAuthMiddlewareHandler(loginChecker auth.Checker) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		loginChecker: loginChecker,
	}
}

// RequireAdmin rejects requests that do not carry a valid session cookie.
func (h *AuthMiddlewareHandler) RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.requireAdmin")
			defer span.End()

			cookie, err := r.Cookie(auth.SessionCookieName)
			if err != nil || cookie.Value == "" {
				log.Tracef("[missing session] [auth middleware] unauthorized => %s", r.URL.Path)
				span.SetStatus(codes.Error, "missing-session-cookie")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			_, found, err := h.loginChecker.SessionAdminID(ctx, cookie.Value)
			if err != nil {
				log.Errorf("[failed session check] => %s: %s", r.URL.Path, err)
				span.SetStatus(codes.Error, "session-check-err")
				span.RecordError(err)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !found {
				log.Tracef("[invalid session] [auth middleware] unauthorized => %s", r.URL.Path)
				span.SetStatus(codes.Error, "not-logged")
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
