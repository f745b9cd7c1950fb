// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MeetBot Contributors

package api

import (
	"net/http"
	"time"

	"github.com/meetbot/meetbot/internal/auth"
)

// Cookie names carrying the issued credentials.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

func (h *Handler) authCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, tokens auth.TokenPair) {
	http.SetCookie(w, h.authCookie(AccessTokenCookie, tokens.AccessToken, h.tokens.AccessTTL()))
	http.SetCookie(w, h.authCookie(RefreshTokenCookie, tokens.SessionToken, h.tokens.SessionTTL()))
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c := h.authCookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}
