package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"posh-assistant-backend/internal/auth"
	"posh-assistant-backend/internal/logging"
	"posh-assistant-backend/internal/types"
)

// requireCommittee admits requests carrying a valid committee bearer token
// and stores the member ID on the request context.
func requireCommittee(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Error: "bearer token required"})
				return
			}

			claims, err := auth.ParseCommitteeToken(strings.TrimSpace(token), secret)
			if err != nil {
				logging.AppLogger.Info("committee auth rejected",
					zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
				switch {
				case errors.Is(err, auth.ErrForbidden):
					writeJSON(w, http.StatusForbidden, types.ErrorResponse{Error: "committee access required"})
				case errors.Is(err, jwt.ErrTokenExpired):
					writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Error: "token has expired"})
				default:
					writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Error: "invalid token"})
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithMember(r.Context(), claims.Subject)))
		})
	}
}
