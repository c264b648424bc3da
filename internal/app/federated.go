package app

import (
	"context"

	"github.com/aussiebroadwan/authkit/pkg/authsdk"
)

// StaticGoogleSignIn stands in for the native Google SDK on the command line:
// the user obtains an ID token elsewhere and passes it in.
type StaticGoogleSignIn struct {
	IDToken string
}

func (s *StaticGoogleSignIn) Configure(context.Context, authsdk.GoogleSignInOptions) error { return nil }

func (s *StaticGoogleSignIn) HasPlayServices(context.Context) error { return nil }

// SignIn returns the configured token, or a cancellation when there is none.
func (s *StaticGoogleSignIn) SignIn(context.Context) (*authsdk.GoogleSignInResult, error) {
	if s.IDToken == "" {
		return nil, &authsdk.ProviderError{
			Provider: authsdk.ProviderGoogle,
			Code:     authsdk.GoogleErrorSignInCancelled,
			Message:  "no Google ID token supplied",
		}
	}
	return &authsdk.GoogleSignInResult{IDToken: s.IDToken}, nil
}

func (s *StaticGoogleSignIn) SignOut(context.Context) error { return nil }

// StaticAppleSignIn is the Apple counterpart of StaticGoogleSignIn. The
// identity token must have been requested with the nonce the SDK hashes, so
// it is only useful against test backends.
type StaticAppleSignIn struct {
	IdentityToken string
}

func (s *StaticAppleSignIn) PerformRequest(context.Context, authsdk.AppleSignInRequest) (*authsdk.AppleSignInResponse, error) {
	if s.IdentityToken == "" {
		return nil, &authsdk.ProviderError{
			Provider: authsdk.ProviderApple,
			Code:     authsdk.AppleErrorCanceled,
			Message:  "no Apple identity token supplied",
		}
	}
	return &authsdk.AppleSignInResponse{IdentityToken: s.IdentityToken}, nil
}
