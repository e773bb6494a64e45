// Package entity contains the core business objects of eventboard.
package entity

import "time"

// UserIdentity is the authenticated user as issued by the identity backend.
type UserIdentity struct {
	UID         string `json:"uid"`          // Stable, backend-issued identifier.
	Email       string `json:"email"`        // Sign-in email address.
	DisplayName string `json:"display_name"` // Name shown on the dashboard header.

	IDToken   string    `json:"-"` // Backend session token, used for revalidation.
	ExpiresAt time.Time `json:"-"` // Expiry of IDToken, zero if unknown.
}

// Session is the local view of the authentication state.
type Session struct {
	Identity *UserIdentity `json:"identity,omitempty"`
	Loading  bool          `json:"loading"`
}

// Authenticated reports whether the session currently holds an identity.
func (s Session) Authenticated() bool {
	return s.Identity != nil
}

// UID returns the current user id, or "" when signed out.
func (s Session) UID() string {
	if s.Identity == nil {
		return ""
	}

	return s.Identity.UID
}

// UserProfile is the companion record written at registration under users/{uid}.
type UserProfile struct {
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
