package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// ErrUnknownUser - токен выписан пользователю, которого больше нет.
var ErrUnknownUser = errors.New("token subject no longer exists")

// Validator проверяет токен и возвращает принципала.
type Validator interface {
	Validate(raw string) (*Principal, error)
}

// Middleware извлекает токен из заголовка Authorization или параметра token
// (браузерный websocket не умеет ставить заголовки). Без токена запрос
// анонимный; с невалидным токеном - 401.
func Middleware(v Validator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" {
				raw = r.URL.Query().Get("token")
			}
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := v.Validate(raw)
			if err != nil {
				logger.Debug("rejected token", zap.Error(err), zap.String("path", r.URL.Path))
				writeUnauthorized(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RoleLookup возвращает текущую роль пользователя; found=false, если его нет.
type RoleLookup func(ctx context.Context, userID int64) (role string, found bool, err error)

// Refresh сверяет принципала с хранилищем. Роль берется из хранилища,
// токен удаленного пользователя получает 401.
func Refresh(lookup RoleLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := FromContext(r.Context())
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			role, found, err := lookup(r.Context(), p.UserID)
			if err != nil {
				logger.Error("principal lookup failed", zap.Error(err), zap.Int64("userID", p.UserID))
				writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
				return
			}
			if !found {
				logger.Debug("token of a deleted user", zap.Int64("userID", p.UserID))
				writeUnauthorized(w, ErrUnknownUser)
				return
			}
			if role != p.Role {
				logger.Debug("role changed since token was issued",
					zap.Int64("userID", p.UserID), zap.String("tokenRole", p.Role), zap.String("role", role))
			}
			fresh := *p
			fresh.Role = role
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), &fresh)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"errors": []map[string]interface{}{{
			"message":    message,
			"extensions": map[string]string{"type": code, "code": code},
		}},
	})
}
