package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"aicruiter/internal/auth"
	"aicruiter/internal/utils"
)

const userKey contextKey = "user"

// WithUser stores the signed-in user on the context.
func WithUser(ctx context.Context, user *auth.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user set by AccessGate or RequireUser, if any.
func UserFromContext(ctx context.Context) (*auth.User, bool) {
	user, ok := ctx.Value(userKey).(*auth.User)
	return user, ok && user != nil
}

type GateConfig struct {
	ProtectedPrefixes []string
	SignInPath        string
	CookieName        string
}

// AccessGate redirects requests under a protected prefix to the sign-in path
// unless they carry a valid session. Other paths pass through untouched.
func AccessGate(cfg GateConfig, verifier auth.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isProtected(r.URL.Path, cfg.ProtectedPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authenticate(r, cfg.CookieName, verifier)
			if err != nil {
				logger.Debug("access gate redirect",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				http.Redirect(w, r, signInURL(cfg.SignInPath, r.URL.RequestURI()), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser is the API variant of the gate: unauthenticated callers get a JSON 401.
func RequireUser(cookieName string, verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticate(r, cookieName, verifier)
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, "Not signed in")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func authenticate(r *http.Request, cookieName string, verifier auth.Verifier) (*auth.User, error) {
	if user, ok := UserFromContext(r.Context()); ok {
		return user, nil
	}
	token, err := auth.TokenFromRequest(r, cookieName)
	if err != nil {
		return nil, err
	}
	return verifier.Verify(r.Context(), token)
}

// a prefix matches itself and anything below it, never a sibling like /dashboards
func isProtected(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimRight(prefix, "/")
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func signInURL(signInPath, next string) string {
	return signInPath + "?next=" + url.QueryEscape(next)
}
