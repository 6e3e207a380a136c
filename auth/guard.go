package auth

import "net/http"

// Default redirect targets.
const (
	LoginPath = "/login"
	HomePath  = "/dashboard"
)

// Decision is the outcome of a route guard.
type Decision struct {
	Allow    bool
	Redirect string
}

// ProtectedRoute admits sessions holding a token and sends the rest to login.
// A JWT whose exp has passed counts as no token. Roles are not checked here;
// pages gate on capabilities.
func ProtectedRoute(s Session) Decision {
	if s.Authenticated() {
		return Decision{Allow: true}
	}
	return Decision{Redirect: LoginPath}
}

// GuestRoute admits signed-out sessions only (login, signup) and sends
// authenticated sessions home. An expired JWT is treated as signed out.
func GuestRoute(s Session) Decision {
	if s.Authenticated() {
		return Decision{Redirect: HomePath}
	}
	return Decision{Allow: true}
}

// SessionLoader returns the session for a request.
type SessionLoader func(r *http.Request) Session

// Guard is HTTP middleware applying a route guard.
// Admitted requests carry the session in their context.
//
// Usage:
//
//	mux.Handle("/dashboard", auth.Guard(auth.ProtectedRoute, load)(dashboard))
//	mux.Handle("/login", auth.Guard(auth.GuestRoute, load)(login))
func Guard(guard func(Session) Decision, load SessionLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := load(r)
			d := guard(s)
			if !d.Allow {
				http.Redirect(w, r, d.Redirect, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// StoreLoader loads the session from store on every request.
// A storage failure is treated as signed out.
func StoreLoader(store SessionStore) SessionLoader {
	return func(*http.Request) Session {
		s, err := Restore(store)
		if err != nil {
			return Session{}
		}
		return s
	}
}

// RequireSession guards pages that need a signed-in session.
func RequireSession(load SessionLoader) func(http.Handler) http.Handler {
	return Guard(ProtectedRoute, load)
}

// RequireGuest guards the login and signup pages.
func RequireGuest(load SessionLoader) func(http.Handler) http.Handler {
	return Guard(GuestRoute, load)
}
