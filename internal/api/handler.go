// Package api serves the JSON endpoints used by scripts and other clients:
// GET/POST /data for shift records and POST /auth/token for bearer tokens.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"gitea.jw6.us/james/tiptrack/internal/auth"
	httperrors "gitea.jw6.us/james/tiptrack/internal/http/errors"
	"gitea.jw6.us/james/tiptrack/internal/metrics"
	"gitea.jw6.us/james/tiptrack/internal/shifts"
	"gitea.jw6.us/james/tiptrack/internal/store"
)

const maxBodyBytes = 64 << 10

// Handler serves the /data and /auth/token endpoints.
type Handler struct {
	shifts      store.ShiftRepository
	authService *auth.Service
}

func NewHandler(st *store.Store, authService *auth.Service) *Handler {
	return &Handler{shifts: st.Shifts, authService: authService}
}

type createShiftResponse struct {
	Message string         `json:"message"`
	Data    *shifts.Record `json:"data"`
}

// ListShifts returns the caller's records ascending by date. An owner with no
// records gets an empty array.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		httperrors.JSONError(w, r, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	records, err := h.shifts.ListByOwner(r.Context(), session.UserID)
	if err != nil {
		httperrors.JSONError(w, r, http.StatusInternalServerError, "list shifts failed", err)
		return
	}
	if records == nil {
		records = []shifts.Record{}
	}
	httperrors.JSON(w, http.StatusOK, records)
}

// CreateShift validates and stores one shift for the caller.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		httperrors.JSONError(w, r, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var body shiftRequest
	if err := decodeJSON(w, r, &body); err != nil {
		httperrors.JSONError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	draft, err := body.input().Validate(session.UserID)
	if err != nil {
		var validationErr *shifts.ValidationError
		if errors.As(err, &validationErr) {
			httperrors.JSONError(w, r, http.StatusBadRequest, validationErr.Error(), nil)
			return
		}
		httperrors.JSONError(w, r, http.StatusBadRequest, "invalid shift", err)
		return
	}

	rec, err := h.shifts.Insert(r.Context(), draft)
	if err != nil {
		httperrors.JSONError(w, r, http.StatusInternalServerError, "insert shift failed", err)
		return
	}
	metrics.ShiftCreated("api")
	httperrors.LogInfo(r, "shift created", zap.Int64("user_id", session.UserID), zap.String("shift_id", rec.ID))

	httperrors.JSON(w, http.StatusCreated, createShiftResponse{Message: "Shift saved", Data: rec})
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IssueToken exchanges an email and password for a bearer token.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	if err := decodeJSON(w, r, &body); err != nil {
		httperrors.JSONError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	token, expires, err := h.authService.IssueToken(r.Context(), body.Email, body.Password)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			httperrors.JSONError(w, r, http.StatusUnauthorized, auth.Message(err), nil)
			return
		}
		httperrors.JSONError(w, r, http.StatusInternalServerError, "issue token failed", err)
		return
	}

	httperrors.JSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expires})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
