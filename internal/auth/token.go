package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gitea.jw6.us/james/tiptrack/internal/metrics"
)

const tokenIssuer = "tiptrack"

type tokenClaims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// IssueToken exchanges a password for a signed bearer token accepted by
// RequireToken. Unconfirmed accounts get no token while confirmation is
// required.
func (s *Service) IssueToken(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.checkPassword(ctx, email, password)
	if err == nil && s.cfg.RequireEmailConfirmation && !user.Confirmed() {
		err = authErr("issue token", ErrUnverifiedEmail, nil)
	}
	metrics.AuthAttempt("token", err == nil)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	expires := now.Add(s.cfg.Token.TTL)
	claims := tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Token.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ParseToken validates a bearer token and returns the session it stands for.
// Token sessions have no server-side row and an empty ID.
func (s *Service) ParseToken(raw string) (*Session, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Token.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, authErr("parse token", ErrInvalidCredentials, err)
	}
	if claims.UserID <= 0 {
		return nil, authErr("parse token", ErrInvalidCredentials, errors.New("token carries no user"))
	}
	return &Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// RequireToken authenticates API requests by "Authorization: Bearer" token.
// Failures answer 401 with a JSON error body.
func (s *Service) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w)
			return
		}
		session, err := s.ParseToken(raw)
		if err != nil {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="tiptrack"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
