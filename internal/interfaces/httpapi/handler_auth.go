package httpapi

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/pickem/internal/usecase"
)

const (
	oauthStateCookie = "pickem_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// Login redirects the browser to the OAuth provider with a fresh state bound to a cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Login")
	defer span.End()

	state, err := newOAuthState()
	if err != nil {
		h.logger.ErrorContext(ctx, "generate oauth state failed", "error", err)
		writeInternalError(ctx, w)
		return
	}

	target, err := h.accountService.LoginURL(state)
	if err != nil {
		h.logger.WarnContext(ctx, "build login url failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/v1/auth",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Callback")
	defer span.End()

	query := r.URL.Query()
	if reason := strings.TrimSpace(query.Get("error")); reason != "" {
		writeError(ctx, w, fmt.Errorf("%w: login was not granted: %s", usecase.ErrUnauthorized, reason))
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	state := strings.TrimSpace(query.Get("state"))
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		writeError(ctx, w, fmt.Errorf("%w: oauth state mismatch", usecase.ErrUnauthorized))
		return
	}

	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		writeError(ctx, w, fmt.Errorf("%w: authorization code is required", usecase.ErrInvalidInput))
		return
	}

	result, err := h.accountService.CompleteLogin(ctx, code)
	if err != nil {
		h.logger.WarnContext(ctx, "complete login failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeSuccess(ctx, w, http.StatusOK, sessionDTO{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Created:   result.Created,
		Account:   accountToDTO(result.Account),
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Me")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	item, err := h.accountService.Me(ctx, principal.AccountID)
	if err != nil {
		h.logger.WarnContext(ctx, "get account failed", "account_id", principal.AccountID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, accountToDTO(item))
}

func newOAuthState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
