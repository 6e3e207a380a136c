package auth

import (
	"errors"
	"time"
)

// User is the signed-in user as returned by the login flow.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

// Session is the auth payload: token, role and user.
// The zero Session is a signed-out session.
type Session struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
	User  *User  `json:"user,omitempty"`
}

// HasToken reports whether a token is present.
func (s Session) HasToken() bool {
	return s.Token != ""
}

// Expired reports whether the token carries an exp claim before now.
// Opaque (non-JWT) tokens never expire on the client.
func (s Session) Expired(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	claims, err := ParseTokenClaims(s.Token)
	if err != nil || claims.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(claims.ExpiresAt)
}

// Authenticated reports whether a usable token is present.
func (s Session) Authenticated() bool {
	return s.HasToken() && !s.Expired(time.Now())
}

// WithPhoto returns a copy of the session with the user's photo replaced.
func (s Session) WithPhoto(url string) Session {
	if s.User == nil {
		s.User = &User{}
	} else {
		u := *s.User
		s.User = &u
	}
	s.User.PhotoURL = url
	return s
}

// Restore loads the persisted session. An expired session is cleared from
// storage and the signed-out session is returned.
func Restore(store SessionStore) (Session, error) {
	sess, err := store.Load()
	if errors.Is(err, ErrNoSession) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}
	if sess.Expired(time.Now()) {
		if err := store.Clear(); err != nil {
			return Session{}, err
		}
		return Session{}, nil
	}
	return sess, nil
}
