package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/event-portal/models"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

// IdentityClaims - claims токена провайдера идентификации.
type IdentityClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator проверяет HS256 токены провайдера и достает из них личность.
type Authenticator struct {
	secret []byte
	issuer string
	logger *slog.Logger
}

func NewAuthenticator(secret, issuer string, logger *slog.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, logger: logger}
}

// Parse проверяет подпись и срок действия токена.
func (a *Authenticator) Parse(tokenString string) (models.Identity, error) {
	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return models.Identity{}, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return models.Identity{}, fmt.Errorf("%w: unexpected issuer %q", errInvalidToken, claims.Issuer)
	}
	if claims.Subject == "" {
		return models.Identity{}, fmt.Errorf("%w: missing subject", errInvalidToken)
	}

	role := models.RoleAttendee
	if models.UserRole(claims.Role) == models.RoleOrganizer {
		role = models.RoleOrganizer
	}
	return models.Identity{
		ID:       claims.Subject,
		FullName: claims.Name,
		Email:    claims.Email,
		Role:     role,
	}, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Authenticate пропускает только запросы с валидным токеном.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		a.serveWithToken(w, r, next, token)
	})
}

// OptionalAuthenticate добавляет личность, если токен передан, иначе пропускает запрос как гостевой.
// Невалидный токен все равно отклоняется.
func (a *Authenticator) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		a.serveWithToken(w, r, next, token)
	})
}

// AuthenticateQuery берет токен из ?token= (браузер не может передать заголовок при upgrade).
func (a *Authenticator) AuthenticateQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			var err error
			if token, err = bearerToken(r); err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
		}
		a.serveWithToken(w, r, next, token)
	})
}

func (a *Authenticator) serveWithToken(w http.ResponseWriter, r *http.Request, next http.Handler, token string) {
	identity, err := a.Parse(token)
	if err != nil {
		a.logger.Debug("rejected identity token", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
}

// RequireOrganizer пропускает только организаторов. Ставится после Authenticate.
func RequireOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if !identity.IsOrganizer() {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
