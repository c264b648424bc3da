package authsdk

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/authkit/pkg/cryptox"
	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// AppleErrorCanceled is the Sign in with Apple cancellation code
// (ASAuthorizationError.canceled).
const AppleErrorCanceled = "1001"

// Apple scopes requested on login.
const (
	AppleScopeEmail    = "email"
	AppleScopeFullName = "fullName"
)

// AppleSignInRequest is passed to the native Apple flow.
type AppleSignInRequest struct {
	Scopes []string

	// HashedNonce is the SHA-256 hex of the raw nonce; Apple embeds it in the
	// identity token
	HashedNonce string
}

// AppleSignInResponse is what the native Apple flow hands back.
type AppleSignInResponse struct {
	IdentityToken     string
	AuthorizationCode string
	Email             string
	FullName          string
}

// AppleSignIn is the native Sign in with Apple SDK. Failures should be
// *ProviderError values so cancellation can be recognized.
type AppleSignIn interface {
	PerformRequest(ctx context.Context, req AppleSignInRequest) (*AppleSignInResponse, error)
}

// AppleProvider signs users in with an Apple identity token.
type AppleProvider struct {
	backend Backend
	sdk     AppleSignIn
	logger  *slog.Logger
}

func NewAppleProvider(backend Backend, sdk AppleSignIn, logger *slog.Logger) *AppleProvider {
	if logger == nil {
		logger = slogx.Discard()
	}
	return &AppleProvider{backend: backend, sdk: sdk, logger: logger}
}

func (p *AppleProvider) ProviderID() string { return ProviderApple }

// SignIn runs the Apple flow with a fresh nonce and exchanges the identity
// token with the backend, proving the token was minted for this request.
func (p *AppleProvider) SignIn(ctx context.Context) (*User, error) {
	rawNonce, err := cryptox.GenerateNonce(cryptox.NonceSize)
	if err != nil {
		return nil, NewAuthError(CodeUnknown, "Failed to prepare Apple Sign-In", err)
	}

	resp, err := p.sdk.PerformRequest(ctx, AppleSignInRequest{
		Scopes:      []string{AppleScopeEmail, AppleScopeFullName},
		HashedNonce: cryptox.HashNonce(rawNonce),
	})
	if err != nil {
		var provErr *ProviderError
		if errors.As(err, &provErr) && provErr.Code == AppleErrorCanceled {
			return nil, NewAuthError(CodeSignInCancelled, "Apple Sign-In cancelled", err)
		}
		return nil, TranslateError(err)
	}
	if resp == nil || resp.IdentityToken == "" {
		slogx.FromContext(ctx, p.logger).Error("apple sign-in returned no identity token")
		return nil, ErrMissingToken.withMessage("Apple Sign-In failed - no identity token returned")
	}

	bu, err := p.backend.SignInWithCredential(ctx, Credential{
		ProviderID: ProviderApple,
		IDToken:    resp.IdentityToken,
		RawNonce:   rawNonce,
	})
	if err != nil {
		return nil, TranslateError(err)
	}

	user := toUser(bu, ProviderApple)
	return &user, nil
}
