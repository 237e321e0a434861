package middleware

import (
	"net/http"

	"github.com/dukerupert/homehq/internal/auth"
	"github.com/dukerupert/homehq/internal/handler"
	"github.com/dukerupert/homehq/internal/store"
)

// RequireAuth validates the session cookie, loads the profile, and puts the
// resolved identity into the request context. The application core receives
// user and family ids as plain parameters from there on.
func RequireAuth(sessionStore *store.SessionStore, profileStore *store.ProfileStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(handler.SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			profile, err := profileStore.GetByID(sess.ProfileID)
			if err != nil || profile == nil || profile.FamilyID != sess.FamilyID {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				ProfileID: profile.ID,
				FamilyID:  profile.FamilyID,
				Role:      profile.Role,
				SessionID: sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated profile has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"authentication required"}`))
}
