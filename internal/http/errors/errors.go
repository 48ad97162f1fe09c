// Package errors writes HTTP error responses and logs the underlying cause
// with the chi request id. Clients only ever see generic text for 5xx.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func requestLogger(r *http.Request) *zap.Logger {
	logger := zap.L()
	if requestID := middleware.GetReqID(r.Context()); requestID != "" {
		logger = logger.With(zap.String("request_id", requestID))
	}
	return logger
}

func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	requestLogger(r).Error(message, zap.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func BadRequestError(w http.ResponseWriter, r *http.Request, err error, clientMessage string) {
	requestLogger(r).Warn("bad request", zap.Error(err))
	http.Error(w, clientMessage, http.StatusBadRequest)
}

func LogError(r *http.Request, message string, err error) {
	requestLogger(r).Error(message, zap.Error(err))
}

func LogInfo(r *http.Request, message string, fields ...zap.Field) {
	requestLogger(r).Info(message, fields...)
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes {"error": message}. For 5xx the cause is logged and
// message replaced by a generic one.
func JSONError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		requestLogger(r).Error(message, zap.Error(err))
		message = "internal server error"
	} else if err != nil {
		requestLogger(r).Warn(message, zap.Error(err))
	}
	JSON(w, status, map[string]string{"error": message})
}
