package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/point-service/internal/api/httpx"
	"github.com/baharkarakas/point-service/internal/api/validate"
	"github.com/baharkarakas/point-service/internal/middleware"
	"github.com/baharkarakas/point-service/internal/models"
	"github.com/baharkarakas/point-service/internal/services"
)

// PointLedger is the slice of *services.PointService the handlers need.
type PointLedger interface {
	GetUserPoint(ctx context.Context, userID int64) (models.UserPoint, error)
	GetPointHistory(ctx context.Context, userID int64) ([]models.PointHistory, error)
	ChargePoint(ctx context.Context, userID, amount int64) (models.UserPoint, error)
	UsePoint(ctx context.Context, userID, amount int64) (models.UserPoint, error)
}

type PointHandler struct {
	svc PointLedger
}

func NewPointHandler(svc PointLedger) *PointHandler {
	return &PointHandler{svc: svc}
}

type amountReq struct {
	Amount int64 `json:"amount"`
}

func (h *PointHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetUserPoint(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *PointHandler) Histories(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	hs, err := h.svc.GetPointHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, hs)
}

func (h *PointHandler) Charge(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.ChargePoint)
}

func (h *PointHandler) Use(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.svc.UsePoint)
}

func (h *PointHandler) mutate(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, int64) (models.UserPoint, error)) {
	id, ok := pathUserID(w, r)
	if !ok {
		return
	}
	var req amountReq
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body", err.Error())
		return
	}
	if ef := validate.Amount(req.Amount); ef != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "validation failed", validate.Errs{*ef})
		return
	}
	p, err := op(r.Context(), id, req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ef := validate.PositiveID("id", chi.URLParam(r, "id"))
	if ef != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "validation failed", validate.Errs{*ef})
		return 0, false
	}
	return id, true
}

// statusFor maps ledger error codes onto HTTP statuses.
func statusFor(code string) int {
	switch code {
	case "invalid_amount", "below_minimum", "charge_limit_exceeded", "use_limit_exceeded":
		return http.StatusBadRequest
	case "balance_limit_exceeded", "insufficient_balance":
		return http.StatusUnprocessableEntity
	case "lock_timeout":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := services.ErrorCode(err)
	status := statusFor(code)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("point request failed",
			"err", err,
			"request_id", middleware.RequestIDFrom(r.Context()),
			"path", r.URL.Path,
		)
		msg = "internal error"
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	httpx.WriteError(w, status, code, msg, nil)
}
