package middleware

import (
	"context"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"

	"github.com/fitmate/backend/internal/auth"
	"github.com/fitmate/backend/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type loginChecker interface {
	IsLogged(ctx context.Context, token string) (bool, error)
}

type AuthMiddlewareHandler struct {
	loginChecker  loginChecker
	tokenVerifier *auth.TokenVerifier
	allowedPaths  map[string]bool
	adminPrefixes []string
}

func NewAuthMiddlewareHandler(
	loginChecker loginChecker,
	tokenVerifier *auth.TokenVerifier,
) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		loginChecker:  loginChecker,
		tokenVerifier: tokenVerifier,
		allowedPaths: map[string]bool{
			// misc handler:
			"/":           true,
			"/version":    true,
			"/tip/random": true,
			"/myip":       true,

			// login-logout:
			"/a/login":  true,
			"/a/logout": true,
		},
		adminPrefixes: []string{
			"/admin/",
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsAlwaysAllowed(path string) bool {
	return h.allowedPaths[path]
}

func (h *AuthMiddlewareHandler) pathIsAdmin(path string) bool {
	for _, prefix := range h.adminPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.pathIsAlwaysAllowed(r.URL.Path) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			// admin routes are guarded by redis backed login sessions
			if h.pathIsAdmin(r.URL.Path) {
				authToken := r.Header.Get("X-FITMATE-TOKEN")
				if authToken == "" {
					log.Tracef("[missing admin token] [auth middleware] unauthorized => %s", r.URL.Path)
					http.Error(w, "no can do", http.StatusUnauthorized)
					span.SetStatus(codes.Error, "missing-auth-token")
					return
				}

				isLogged, err := h.loginChecker.IsLogged(ctx, authToken)
				if err != nil {
					log.Errorf("[failed login check] => %s: %s", r.URL.Path, err)
					http.Error(w, "no can do", http.StatusUnauthorized)
					span.SetStatus(codes.Error, "check-logged-err")
					span.RecordError(err)
					return
				}
				if !isLogged {
					log.Tracef("[invalid admin token] [auth middleware] unauthorized => %s", r.URL.Path)
					http.Error(w, "no can do", http.StatusUnauthorized)
					span.SetStatus(codes.Error, "not-logged")
					return
				}

				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			// everything else is a user route, guarded by access tokens
			// minted by the auth collaborator service
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Tracef("[missing bearer token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-bearer-token")
				return
			}

			userID, err := h.tokenVerifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Tracef("[invalid user token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-user-token")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUserID(ctx, userID)))
		})
	}
}
