package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/calibration-game/backend/internal/models"
)

// AdminOnly guards the settings endpoints with HTTP basic auth. The password
// is checked against a bcrypt hash; with no hash configured the admin surface
// is disabled.
func AdminOnly(username, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if passwordHash == "" {
				writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Admin access is disabled"})
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pass))
			if !userOK || passErr != nil {
				slog.Warn("admin login failed", "user", user, "remote", r.RemoteAddr)
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid credentials"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
