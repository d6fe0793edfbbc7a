package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mlakar/shramba/internal/auth"
)

// AuthHandler handles token lifecycle endpoints.
type AuthHandler struct {
	Auth *auth.Authenticator
}

type obtainTokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type obtainTokenResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ObtainToken handles POST /v1/api/auth/token/.
func (h *AuthHandler) ObtainToken(w http.ResponseWriter, r *http.Request) {
	var req obtainTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	tok, err := h.Auth.Issue(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
			jsonError(w, http.StatusUnauthorized, "Invalid credentials.")
			return
		}
		slog.Error("failed to issue token", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("token issued", "user", tok.Identity.Username)
	jsonResponse(w, http.StatusOK, obtainTokenResponse{
		Token:     tok.Token,
		UserID:    tok.Identity.UserID,
		Username:  tok.Identity.Username,
		Email:     tok.Identity.Email,
		ExpiresAt: tok.ExpiresAt,
	})
}

// RevokeToken handles POST /v1/api/auth/revoke/.
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Revoke(r.Context(), GetToken(r.Context())); err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			jsonError(w, http.StatusUnauthorized, unauthorizedMsg)
			return
		}
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "Token revoked successfully"})
}

// RefreshToken handles POST /v1/api/auth/refresh/.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	expiresAt, err := h.Auth.Refresh(r.Context(), GetToken(r.Context()))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			jsonError(w, http.StatusUnauthorized, unauthorizedMsg)
			return
		}
		slog.Error("failed to refresh token", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message":    "Token refreshed successfully",
		"expires_at": expiresAt,
	})
}

// TokenInfo handles GET /v1/api/auth/info/.
func (h *AuthHandler) TokenInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.Auth.Info(r.Context(), GetToken(r.Context()))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			jsonError(w, http.StatusUnauthorized, unauthorizedMsg)
			return
		}
		slog.Error("failed to get token info", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"user_id":    info.Identity.UserID,
		"username":   info.Identity.Username,
		"email":      info.Identity.Email,
		"role":       info.Identity.Role,
		"issued_at":  info.IssuedAt,
		"expires_at": info.ExpiresAt,
	})
}
