// Package auth provides the session facts the client reads on every request
// and render: the bearer token, the role and the signed-in user.
//
// It restores the session from persistent storage before first use, gates
// routes on token presence (GuestRoute, ProtectedRoute) and maps a role to the
// capabilities and navigation entries it unlocks. Authorization itself is
// enforced server side; nothing here is a security boundary.
package auth
