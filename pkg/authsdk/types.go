package authsdk

import (
	"time"
)

// ============================================================================
// Session State
// ============================================================================

// State is the coordinator's current authentication phase.
type State string

const (
	StateLoading         State = "Loading"
	StateAuthenticated   State = "Authenticated"
	StateUnauthenticated State = "Unauthenticated"
	StateExpired         State = "TokenExpired"
)

// Provider IDs attached to User records.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
	ProviderApple    = "apple.com"
	providerUnknown  = "unknown"
)

// ============================================================================
// User Types
// ============================================================================

// User is the normalized identity snapshot handed to the host application.
// Optional attributes are nil when the backend has no value for them.
type User struct {
	UID           string  `json:"uid"`
	Email         *string `json:"email"`
	DisplayName   *string `json:"displayName"`
	PhotoURL      *string `json:"photoURL"`
	EmailVerified bool    `json:"emailVerified"`
	ProviderID    string  `json:"providerId"`

	// CreatedAt is the account creation time in RFC 3339
	CreatedAt string `json:"createdAt"`
}

// BackendUser is the backend-native user a Backend returns. Empty strings
// mean "no value".
type BackendUser struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	ProviderData  []ProviderInfo
	CreationTime  time.Time
}

// ProviderInfo describes one identity linked to a BackendUser.
type ProviderInfo struct {
	ProviderID  string
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// Credential is a federated identity token to exchange for a backend session.
type Credential struct {
	// ProviderID is the federated provider (e.g. "google.com", "apple.com")
	ProviderID string

	// IDToken is the OpenID Connect ID token issued by the provider
	IDToken string

	// RawNonce is the unhashed nonce used when requesting IDToken, if any
	RawNonce string
}

// Result is the outcome of every mutating coordinator operation.
// Exactly one of User (for sign-in style operations) or Error is set on
// success and failure respectively.
type Result struct {
	Success bool       `json:"success"`
	User    *User      `json:"user,omitempty"`
	Error   *AuthError `json:"error,omitempty"`
}

// ============================================================================
// Configuration Types
// ============================================================================

// Config holds the coordinator configuration supplied by the host app.
type Config struct {
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	UI        UIConfig        `mapstructure:"ui" yaml:"ui"`

	// Callbacks are code, not configuration, so loaders skip them
	Callbacks Callbacks `mapstructure:"-" yaml:"-"`
}

// ProvidersConfig enables and configures each sign-in method.
type ProvidersConfig struct {
	EmailPassword EmailPasswordConfig `mapstructure:"email_password" yaml:"email_password"`
	Google        GoogleConfig        `mapstructure:"google" yaml:"google"`
	Apple         AppleConfig         `mapstructure:"apple" yaml:"apple"`
}

type EmailPasswordConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// RequireEmailVerification rejects sign-ins from unverified accounts and
	// sends a verification email on sign-up
	RequireEmailVerification bool `mapstructure:"require_email_verification" yaml:"require_email_verification"`
}

type GoogleConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	WebClientID string `mapstructure:"web_client_id" yaml:"web_client_id"`
}

type AppleConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Theme names understood by presentation layers. Any other string is passed
// through untouched.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// UIConfig is carried for presentation layers; the SDK itself ignores it.
type UIConfig struct {
	Theme        string `mapstructure:"theme" yaml:"theme"`
	PrimaryColor string `mapstructure:"primary_color" yaml:"primary_color"`
	Logo         string `mapstructure:"logo" yaml:"logo"`
}

// Callbacks are invoked synchronously on the goroutine that produced the
// event. Either may be nil.
type Callbacks struct {
	OnAuthStateChanged func(state State, user *User)
	OnError            func(err *AuthError)
}
