package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/calibration-game/backend/internal/models"
)

// CookieName holds the anonymous session id.
const CookieName = "trivia_sid"

type ctxKey int

const playerKey ctxKey = iota

// PlayerID returns the identity the middleware attached to ctx. Signed-in
// players look like "user:<id>", anonymous ones like "anon:<uuid>".
func PlayerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(playerKey).(string)
	return id, ok && id != ""
}

// WithPlayer attaches a player id to ctx.
func WithPlayer(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, playerKey, id)
}

// Identity resolves who is playing. A bearer token issued by the identity
// provider wins; otherwise the player is tracked by an anonymous cookie.
type Identity struct {
	secret       []byte
	secureCookie bool
	cookieTTL    time.Duration
}

func NewIdentity(jwtSecret string, secureCookie bool, cookieTTL time.Duration) *Identity {
	if cookieTTL <= 0 {
		cookieTTL = 30 * 24 * time.Hour
	}
	return &Identity{secret: []byte(jwtSecret), secureCookie: secureCookie, cookieTTL: cookieTTL}
}

func (i *Identity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if header := r.Header.Get("Authorization"); header != "" {
			userID, err := i.parseBearer(header)
			if err != nil {
				slog.Debug("rejected bearer token", "error", err)
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid or expired token"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPlayer(r.Context(), "user:"+userID)))
			return
		}

		sid := ""
		if c, err := r.Cookie(CookieName); err == nil {
			if id, err := uuid.Parse(c.Value); err == nil {
				sid = id.String()
			}
		}
		if sid == "" {
			sid = uuid.NewString()
		}
		// Refresh on every request so active players keep their session.
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    sid,
			Path:     "/",
			MaxAge:   int(i.cookieTTL.Seconds()),
			HttpOnly: true,
			Secure:   i.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		next.ServeHTTP(w, r.WithContext(WithPlayer(r.Context(), "anon:"+sid)))
	})
}

func (i *Identity) parseBearer(header string) (string, error) {
	if len(i.secret) == 0 {
		return "", errors.New("token verification is not configured")
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errors.New("malformed authorization header")
	}

	token, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unexpected claims type")
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	// Tokens from the older identity service carry a numeric user_id.
	if uid, ok := claims["user_id"].(float64); ok {
		return fmt.Sprintf("%d", int64(uid)), nil
	}
	return "", errors.New("token has no subject")
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
