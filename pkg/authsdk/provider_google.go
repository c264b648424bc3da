package authsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// Google Sign-In SDK error codes recognized by value.
const (
	GoogleErrorCancelledByUser = "12501"
	GoogleErrorSignInCancelled = "SIGN_IN_CANCELLED"
	GoogleErrorDeveloper       = "DEVELOPER_ERROR"
)

// GoogleSignInOptions are passed to the Google SDK when it is configured.
type GoogleSignInOptions struct {
	WebClientID              string
	OfflineAccess            bool
	ForceCodeForRefreshToken bool
	Scopes                   []string
}

// GoogleSignInResult is what the native Google flow hands back.
type GoogleSignInResult struct {
	IDToken string
	Email   string
}

// GoogleSignIn is the native Google Sign-In SDK. Failures should be
// *ProviderError values so cancellation can be recognized.
type GoogleSignIn interface {
	Configure(ctx context.Context, opts GoogleSignInOptions) error
	HasPlayServices(ctx context.Context) error
	SignIn(ctx context.Context) (*GoogleSignInResult, error)
	SignOut(ctx context.Context) error
}

// GoogleProvider signs users in with a Google ID token.
type GoogleProvider struct {
	backend     Backend
	sdk         GoogleSignIn
	webClientID string
	logger      *slog.Logger

	mu         sync.Mutex
	configured bool
}

// NewGoogleProvider creates a Google adapter. The SDK is configured lazily on
// the first sign-in attempt.
func NewGoogleProvider(backend Backend, sdk GoogleSignIn, cfg GoogleConfig, logger *slog.Logger) *GoogleProvider {
	if logger == nil {
		logger = slogx.Discard()
	}
	return &GoogleProvider{
		backend:     backend,
		sdk:         sdk,
		webClientID: cfg.WebClientID,
		logger:      logger,
	}
}

func (p *GoogleProvider) ProviderID() string { return ProviderGoogle }

// configure runs the SDK configuration once. A failed attempt is retried on
// the next sign-in.
func (p *GoogleProvider) configure(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.configured {
		return nil
	}

	log := slogx.FromContext(ctx, p.logger)
	err := p.sdk.Configure(ctx, GoogleSignInOptions{
		WebClientID:              p.webClientID,
		OfflineAccess:            false,
		ForceCodeForRefreshToken: true,
		Scopes:                   []string{"profile", "email"},
	})
	if err != nil {
		log.Error("google sign-in configuration failed", "error", err)
		return err
	}

	p.configured = true
	log.Info("google sign-in configured")
	return nil
}

// SignIn runs the Google flow and exchanges its ID token with the backend.
func (p *GoogleProvider) SignIn(ctx context.Context) (*User, error) {
	if err := p.configure(ctx); err != nil {
		if authErr := translateGoogleError(err); authErr.Code != CodeUnknown {
			return nil, authErr
		}
		return nil, ErrConfiguration.withCause(err)
	}

	if err := p.sdk.HasPlayServices(ctx); err != nil {
		return nil, translateGoogleError(err)
	}

	res, err := p.sdk.SignIn(ctx)
	if err != nil {
		return nil, translateGoogleError(err)
	}
	if res == nil || res.IDToken == "" {
		slogx.FromContext(ctx, p.logger).Error("google sign-in returned no id token")
		return nil, ErrMissingToken.withMessage("No ID token returned from Google Sign-In")
	}

	bu, err := p.backend.SignInWithCredential(ctx, Credential{
		ProviderID: ProviderGoogle,
		IDToken:    res.IDToken,
	})
	if err != nil {
		return nil, TranslateError(err)
	}

	user := toUser(bu, ProviderGoogle)
	return &user, nil
}

// SignOut ends the Google SDK session.
func (p *GoogleProvider) SignOut(ctx context.Context) error {
	if err := p.sdk.SignOut(ctx); err != nil {
		return fmt.Errorf("google sign-out: %w", err)
	}
	return nil
}

func translateGoogleError(err error) *AuthError {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case GoogleErrorCancelledByUser:
			return NewAuthError(CodeSignInCancelled, "Sign-in cancelled by user", err)
		case GoogleErrorSignInCancelled:
			return ErrSignInCancelled.withCause(err)
		case GoogleErrorDeveloper:
			return NewAuthError(
				CodeConfigurationError,
				"DEVELOPER_ERROR: Check SHA-1 fingerprint, package name, and webClientId configuration",
				err,
			)
		}
	}
	return TranslateError(err)
}
