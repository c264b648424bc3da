package authsdk

import "context"

// Provider is the capability every sign-in adapter shares: it produces a
// normalized User from a sign-in attempt. The sign-in call itself differs
// (credentials vs. an interactive federated flow), so adapters implement
// PasswordSigner or FederatedSigner plus any optional capabilities below.
type Provider interface {
	ProviderID() string
}

// PasswordSigner signs in with an email and password.
type PasswordSigner interface {
	Provider
	SignIn(ctx context.Context, email, password string) (*User, error)
}

// FederatedSigner runs an interactive provider flow and exchanges the
// resulting token with the backend.
type FederatedSigner interface {
	Provider
	SignIn(ctx context.Context) (*User, error)
}

// SignUpper creates new accounts.
type SignUpper interface {
	SignUp(ctx context.Context, email, password, displayName string) (*User, error)
}

// PasswordResetter sends password reset emails.
type PasswordResetter interface {
	SendPasswordReset(ctx context.Context, email string) error
}

// VerificationSender sends email verification messages to the current user.
type VerificationSender interface {
	SendVerificationEmail(ctx context.Context) error
}

// SignOuter ends a provider-side session in addition to the backend one.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

var (
	_ PasswordSigner     = (*PasswordProvider)(nil)
	_ SignUpper          = (*PasswordProvider)(nil)
	_ PasswordResetter   = (*PasswordProvider)(nil)
	_ VerificationSender = (*PasswordProvider)(nil)
	_ FederatedSigner    = (*GoogleProvider)(nil)
	_ SignOuter          = (*GoogleProvider)(nil)
	_ FederatedSigner    = (*AppleProvider)(nil)
)
