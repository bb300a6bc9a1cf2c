package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Dosada05/event-portal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// WithIdentity кладет личность пользователя в контекст запроса.
func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext возвращает личность, если запрос аутентифицирован.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Identity)
	return identity, ok
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
