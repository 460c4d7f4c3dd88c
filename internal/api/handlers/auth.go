package handlers

import (
	"net/http"
	"time"

	"github.com/baharkarakas/point-service/internal/api/httpx"
	"github.com/baharkarakas/point-service/internal/api/validate"
	"github.com/baharkarakas/point-service/internal/auth"
)

type AuthHandler struct {
	TM     *auth.TokenManager
	AppEnv string
}

func NewAuthHandler(tm *auth.TokenManager, appEnv string) *AuthHandler {
	return &AuthHandler{TM: tm, AppEnv: appEnv}
}

type tokenReq struct {
	UserID int64 `json:"user_id"`
}

type tokenResp struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

// Token issues a pair for any user id. There are no accounts here, so this is
// only served in the dev environment.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if h.AppEnv != "dev" {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "token issuing is disabled", nil)
		return
	}
	var req tokenReq
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", err.Error())
		return
	}
	if req.UserID <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "validation failed",
			validate.Errs{{Field: "user_id", Msg: "must be a positive integer"}})
		return
	}
	h.issue(w, req.UserID)
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request", nil)
		return
	}
	claims, isRefresh, err := h.TM.ParseAny(req.RefreshToken)
	if err != nil || !isRefresh {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid refresh token", nil)
		return
	}
	h.issue(w, claims.UserID)
}

func (h *AuthHandler) issue(w http.ResponseWriter, userID int64) {
	access, refresh, exp, err := h.TM.GeneratePair(userID)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "token generation failed", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResp{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(exp).Truncate(time.Second).Seconds()),
	})
}
