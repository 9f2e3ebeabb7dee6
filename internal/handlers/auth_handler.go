package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"aicruiter/internal/auth"
	"aicruiter/internal/cache"
	"aicruiter/internal/middleware"
	"aicruiter/internal/models"
	"aicruiter/internal/utils"
	"aicruiter/internal/web"
)

const (
	oauthStateCookie = "aicruiter-oauth-state"
	oauthStateTTL    = 10 * time.Minute
	oauthProvider    = "google"
	defaultHomePath  = "/dashboard"
)

type AuthOptions struct {
	CookieName string
	SignInPath string
	SiteURL    string
}

// AuthHandler drives the hosted-auth sign-in flows and owns the session cookie.
type AuthHandler struct {
	provider auth.SignInProvider
	cache    cache.Cache
	renderer *web.Renderer
	options  AuthOptions
	logger   *zap.Logger
}

func NewAuthHandler(provider auth.SignInProvider, c cache.Cache, renderer *web.Renderer, options AuthOptions, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		cache:    c,
		renderer: renderer,
		options:  options,
		logger:   logger,
	}
}

func (h *AuthHandler) PageHandler(w http.ResponseWriter, r *http.Request) {
	page := web.AuthPage{
		Error: r.URL.Query().Get("error"),
		Next:  safeNext(r.URL.Query().Get("next")),
	}
	if err := h.renderer.Render(w, http.StatusOK, web.PageAuth, page); err != nil {
		h.logger.Error("Failed to render sign-in page", zap.Error(err))
	}
}

// LoginHandler handles the email/password form.
func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithError(w, r, "Invalid form submission")
		return
	}
	req := &models.LoginRequest{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
	if err := req.Validate(); err != nil {
		h.redirectWithError(w, r, err.Error())
		return
	}

	sess, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("sign-in rejected", zap.Error(err))
		h.redirectWithError(w, r, "Invalid email or password")
		return
	}

	h.setSessionCookie(w, sess)
	http.Redirect(w, r, safeNext(r.PostFormValue("next")), http.StatusSeeOther)
}

// GoogleHandler starts the OAuth flow. The PKCE verifier is parked in the cache
// under a random state that the browser carries back in a cookie.
func (h *AuthHandler) GoogleHandler(w http.ResponseWriter, r *http.Request) {
	start, err := h.provider.StartOAuth(oauthProvider, h.options.SiteURL+"/auth/callback")
	if err != nil {
		h.logger.Error("Failed to start OAuth", zap.Error(err))
		h.redirectWithError(w, r, "Could not start Google sign-in")
		return
	}

	state := uuid.New().String()
	if err := h.cache.Set(r.Context(), oauthKey(state), start.CodeVerifier, oauthStateTTL); err != nil {
		h.logger.Error("Failed to store OAuth verifier", zap.Error(err))
		h.redirectWithError(w, r, "Could not start Google sign-in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, start.URL, http.StatusSeeOther)
}

func (h *AuthHandler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if oauthErr := query.Get("error"); oauthErr != "" {
		h.redirectWithError(w, r, oauthErr)
		return
	}
	code := query.Get("code")
	if code == "" {
		h.redirectWithError(w, r, "Missing authorization code")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" {
		h.redirectWithError(w, r, "Sign-in session expired")
		return
	}
	var verifier string
	if err := h.cache.Get(r.Context(), oauthKey(stateCookie.Value), &verifier); err != nil {
		h.redirectWithError(w, r, "Sign-in session expired")
		return
	}
	if err := h.cache.Delete(r.Context(), oauthKey(stateCookie.Value)); err != nil {
		h.logger.Warn("Failed to delete OAuth verifier", zap.Error(err))
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/auth", MaxAge: -1})

	sess, err := h.provider.ExchangeCode(r.Context(), code, verifier)
	if err != nil {
		h.logger.Warn("OAuth code exchange failed", zap.Error(err))
		h.redirectWithError(w, r, "Could not complete sign-in")
		return
	}

	h.setSessionCookie(w, sess)
	http.Redirect(w, r, defaultHomePath, http.StatusSeeOther)
}

func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if token, err := auth.TokenFromRequest(r, h.options.CookieName); err == nil {
		if err := h.provider.SignOut(r.Context(), token); err != nil {
			h.logger.Warn("remote sign-out failed", zap.Error(err))
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.options.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.options.SignInPath, http.StatusSeeOther)
}

// MeHandler reports the signed-in recruiter.
func (h *AuthHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.JSONError(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sess *auth.Session) {
	cookie := &http.Cookie{
		Name:     h.options.CookieName,
		Value:    sess.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure(),
		SameSite: http.SameSiteLaxMode,
	}
	if sess.ExpiresIn > 0 {
		cookie.MaxAge = sess.ExpiresIn
	}
	http.SetCookie(w, cookie)
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, h.options.SignInPath+"?error="+url.QueryEscape(message), http.StatusSeeOther)
}

func (h *AuthHandler) secure() bool {
	return strings.HasPrefix(h.options.SiteURL, "https://")
}

func oauthKey(state string) string {
	return "oauth:" + state
}

// only same-site absolute paths are followed after sign-in
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultHomePath
	}
	return next
}
