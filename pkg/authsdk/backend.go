package authsdk

import (
	"context"
	"time"
)

// Backend is the identity backend the SDK drives. Implementations own the
// session tokens; every method may fail with a *BackendError.
//
// identitytoolkit.Client is the REST implementation shipped with the SDK.
type Backend interface {
	SignInWithPassword(ctx context.Context, email, password string) (*BackendUser, error)
	CreateAccount(ctx context.Context, email, password string) (*BackendUser, error)
	SignInWithCredential(ctx context.Context, cred Credential) (*BackendUser, error)
	SendPasswordReset(ctx context.Context, email string) error
	SendEmailVerification(ctx context.Context) error
	UpdateProfile(ctx context.Context, displayName string) (*BackendUser, error)
	SignOut(ctx context.Context) error

	// CurrentUser returns the signed-in user, or nil.
	CurrentUser() *BackendUser

	// IDToken returns the session's ID token, refreshing it when forceRefresh
	// is set or it is about to expire. It returns "" when nobody is signed in.
	IDToken(ctx context.Context, forceRefresh bool) (string, error)

	// OnSessionChange registers listener for session changes. The listener
	// is called once with the current user right away, then with the new
	// user (or nil) after every sign-in and sign-out, in order.
	OnSessionChange(listener func(user *BackendUser)) (unsubscribe func())
}

// toUser normalizes a backend user. providerID overrides the provider taken
// from the user's linked identities when non-empty.
func toUser(bu *BackendUser, providerID string) User {
	if providerID == "" {
		providerID = providerUnknown
		if len(bu.ProviderData) > 0 && bu.ProviderData[0].ProviderID != "" {
			providerID = bu.ProviderData[0].ProviderID
		}
	}

	created := bu.CreationTime
	if created.IsZero() {
		created = time.Now()
	}

	return User{
		UID:           bu.UID,
		Email:         optional(bu.Email),
		DisplayName:   optional(bu.DisplayName),
		PhotoURL:      optional(bu.PhotoURL),
		EmailVerified: bu.EmailVerified,
		ProviderID:    providerID,
		CreatedAt:     created.UTC().Format(time.RFC3339),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// clone returns a deep copy so callers cannot mutate coordinator state.
func (u *User) clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Email = cloneString(u.Email)
	c.DisplayName = cloneString(u.DisplayName)
	c.PhotoURL = cloneString(u.PhotoURL)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
