package authsdk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordProvider_SignIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		backend := newFakeBackend()
		backend.signInUser = testUser("u1")

		p := NewPasswordProvider(backend, EmailPasswordConfig{Enabled: true}, nil)
		user, err := p.SignIn(ctx, "u1@example.com", "secret")
		require.NoError(t, err)
		require.Equal(t, "u1", user.UID)
		require.Equal(t, ProviderPassword, user.ProviderID)
		require.Equal(t, "u1@example.com", *user.Email)
		require.Equal(t, "2024-03-01T12:00:00Z", user.CreatedAt)
	})

	t.Run("backend error is translated", func(t *testing.T) {
		backend := newFakeBackend()
		backend.signInErr = &BackendError{Code: "auth/user-not-found"}

		p := NewPasswordProvider(backend, EmailPasswordConfig{Enabled: true}, nil)
		_, err := p.SignIn(ctx, "nobody@example.com", "secret")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unverified account is signed out", func(t *testing.T) {
		backend := newFakeBackend()
		bu := testUser("u2")
		bu.EmailVerified = false
		backend.signInUser = bu

		p := NewPasswordProvider(backend, EmailPasswordConfig{Enabled: true, RequireEmailVerification: true}, nil)
		_, err := p.SignIn(ctx, "u2@example.com", "secret")
		require.ErrorIs(t, err, ErrEmailNotVerified)
		require.EqualValues(t, 1, backend.signOutCalls.Load())
		require.Nil(t, backend.CurrentUser())
	})

	t.Run("unverified account allowed without requirement", func(t *testing.T) {
		backend := newFakeBackend()
		bu := testUser("u3")
		bu.EmailVerified = false
		backend.signInUser = bu

		p := NewPasswordProvider(backend, EmailPasswordConfig{Enabled: true}, nil)
		user, err := p.SignIn(ctx, "u3@example.com", "secret")
		require.NoError(t, err)
		require.False(t, user.EmailVerified)
	})
}

func TestPasswordProvider_SignUp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("sets display name and sends verification", func(t *testing.T) {
		backend := newFakeBackend()
		p := NewPasswordProvider(backend, EmailPasswordConfig{Enabled: true, RequireEmailVerification: true}, nil)

		user, err := p.SignUp(ctx, "new@example.com", "secret1", "New Person")
		require.NoError(t, err)
		require.Equal(t, "New Person", *user.DisplayName)
		require.Equal(t, ProviderPassword, user.ProviderID)
		require.EqualValues(t, 1, backend.updateCalls.Load())
		require.EqualValues(t, 1, backend.verifyCalls.Load())
	})

	t.Run("no display name skips profile update", func(t *testing.T) {
		backend := newFakeBackend()
		p := NewPasswordProvider(backend, EmailPasswordConfig{Enabled: true}, nil)

		user, err := p.SignUp(ctx, "new@example.com", "secret1", "")
		require.NoError(t, err)
		require.Nil(t, user.DisplayName)
		require.Zero(t, backend.updateCalls.Load())
		require.Zero(t, backend.verifyCalls.Load())
	})

	t.Run("weak password", func(t *testing.T) {
		backend := newFakeBackend()
		backend.createErr = &BackendError{Code: "auth/weak-password"}
		p := NewPasswordProvider(backend, EmailPasswordConfig{Enabled: true}, nil)

		_, err := p.SignUp(ctx, "new@example.com", "123", "")
		require.ErrorIs(t, err, ErrWeakPassword)
	})
}

func TestPasswordProvider_SendVerificationEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := newFakeBackend()
	p := NewPasswordProvider(backend, EmailPasswordConfig{Enabled: true}, nil)

	require.ErrorIs(t, p.SendVerificationEmail(ctx), ErrNoCurrentUser)

	backend.setUser(testUser("u1"))
	require.NoError(t, p.SendVerificationEmail(ctx))
	require.EqualValues(t, 1, backend.verifyCalls.Load())

	backend.verifyErr = &BackendError{Code: "auth/too-many-requests"}
	require.ErrorIs(t, p.SendVerificationEmail(ctx), ErrTooManyRequests)
}

func TestGoogleProvider_SignIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := GoogleConfig{Enabled: true, WebClientID: "web-client.apps.example.com"}

	t.Run("exchanges id token", func(t *testing.T) {
		backend := newFakeBackend()
		backend.credUser = testUser("g1")
		sdk := &fakeGoogle{result: &GoogleSignInResult{IDToken: "google-token"}}

		p := NewGoogleProvider(backend, sdk, cfg, nil)
		user, err := p.SignIn(ctx)
		require.NoError(t, err)
		require.Equal(t, ProviderGoogle, user.ProviderID)
		require.Equal(t, Credential{ProviderID: ProviderGoogle, IDToken: "google-token"}, backend.lastCred)
		require.Equal(t, cfg.WebClientID, sdk.lastOpts.WebClientID)
		require.Equal(t, []string{"profile", "email"}, sdk.lastOpts.Scopes)

		_, err = p.SignIn(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 1, sdk.configureCalls.Load(), "configure runs once")
	})

	t.Run("failed configure is retried", func(t *testing.T) {
		backend := newFakeBackend()
		backend.credUser = testUser("g2")
		sdk := &fakeGoogle{
			configureErrs: []error{errors.New("play services not ready")},
			result:        &GoogleSignInResult{IDToken: "google-token"},
		}

		p := NewGoogleProvider(backend, sdk, cfg, nil)
		_, err := p.SignIn(ctx)
		require.ErrorIs(t, err, ErrConfiguration)

		_, err = p.SignIn(ctx)
		require.NoError(t, err)
		require.EqualValues(t, 2, sdk.configureCalls.Load())
	})

	t.Run("sdk error codes", func(t *testing.T) {
		tests := []struct {
			code    string
			want    ErrorCode
			message string
		}{
			{GoogleErrorCancelledByUser, CodeSignInCancelled, "Sign-in cancelled by user"},
			{GoogleErrorSignInCancelled, CodeSignInCancelled, "Sign-in cancelled"},
			{GoogleErrorDeveloper, CodeConfigurationError, "DEVELOPER_ERROR: Check SHA-1 fingerprint, package name, and webClientId configuration"},
		}

		for _, tt := range tests {
			sdk := &fakeGoogle{signInErr: &ProviderError{Provider: ProviderGoogle, Code: tt.code}}
			p := NewGoogleProvider(newFakeBackend(), sdk, cfg, nil)

			_, err := p.SignIn(ctx)
			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			require.Equal(t, tt.want, authErr.Code, tt.code)
			require.Equal(t, tt.message, authErr.Message, tt.code)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		sdk := &fakeGoogle{result: &GoogleSignInResult{Email: "g@example.com"}}
		p := NewGoogleProvider(newFakeBackend(), sdk, cfg, nil)

		_, err := p.SignIn(ctx)
		require.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("backend rejection is translated", func(t *testing.T) {
		backend := newFakeBackend()
		backend.credErr = &BackendError{Code: "auth/user-disabled"}
		sdk := &fakeGoogle{result: &GoogleSignInResult{IDToken: "google-token"}}

		p := NewGoogleProvider(backend, sdk, cfg, nil)
		_, err := p.SignIn(ctx)
		require.ErrorIs(t, err, ErrUserDisabled)
	})

	t.Run("sign out reports sdk failure", func(t *testing.T) {
		sdkErr := errors.New("not signed in")
		sdk := &fakeGoogle{signOutErr: sdkErr}
		p := NewGoogleProvider(newFakeBackend(), sdk, cfg, nil)

		require.ErrorIs(t, p.SignOut(ctx), sdkErr)
		require.EqualValues(t, 1, sdk.signOutCalls.Load())
	})
}

func TestAppleProvider_SignIn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("exchanges identity token with raw nonce", func(t *testing.T) {
		backend := newFakeBackend()
		backend.credUser = testUser("a1")
		sdk := &fakeApple{resp: &AppleSignInResponse{IdentityToken: "apple-token"}}

		p := NewAppleProvider(backend, sdk, nil)
		user, err := p.SignIn(ctx)
		require.NoError(t, err)
		require.Equal(t, ProviderApple, user.ProviderID)

		cred := backend.lastCred
		require.Equal(t, ProviderApple, cred.ProviderID)
		require.Equal(t, "apple-token", cred.IDToken)
		require.NotEmpty(t, cred.RawNonce)

		sum := sha256.Sum256([]byte(cred.RawNonce))
		require.Equal(t, hex.EncodeToString(sum[:]), sdk.lastReq.HashedNonce)
		require.ElementsMatch(t, []string{AppleScopeEmail, AppleScopeFullName}, sdk.lastReq.Scopes)
	})

	t.Run("cancelled", func(t *testing.T) {
		sdk := &fakeApple{err: &ProviderError{Provider: ProviderApple, Code: AppleErrorCanceled}}
		p := NewAppleProvider(newFakeBackend(), sdk, nil)

		_, err := p.SignIn(ctx)
		require.ErrorIs(t, err, ErrSignInCancelled)
		require.Equal(t, "SIGN_IN_CANCELLED: Apple Sign-In cancelled", err.Error())
	})

	t.Run("missing identity token", func(t *testing.T) {
		sdk := &fakeApple{resp: &AppleSignInResponse{AuthorizationCode: "code"}}
		p := NewAppleProvider(newFakeBackend(), sdk, nil)

		_, err := p.SignIn(ctx)
		require.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("other sdk failure", func(t *testing.T) {
		sdk := &fakeApple{err: &ProviderError{Provider: ProviderApple, Code: "1000", Message: "unknown"}}
		p := NewAppleProvider(newFakeBackend(), sdk, nil)

		_, err := p.SignIn(ctx)
		require.ErrorIs(t, err, ErrUnknown)
	})
}

func TestToUser(t *testing.T) {
	t.Parallel()

	t.Run("optional fields", func(t *testing.T) {
		user := toUser(&BackendUser{UID: "u1"}, "")
		require.Nil(t, user.Email)
		require.Nil(t, user.DisplayName)
		require.Nil(t, user.PhotoURL)
		require.Equal(t, "unknown", user.ProviderID)
		require.NotEmpty(t, user.CreatedAt)
	})

	t.Run("provider from linked identity", func(t *testing.T) {
		user := toUser(testUser("u1"), "")
		require.Equal(t, ProviderPassword, user.ProviderID)
	})

	t.Run("explicit provider wins", func(t *testing.T) {
		user := toUser(testUser("u1"), ProviderGoogle)
		require.Equal(t, ProviderGoogle, user.ProviderID)
	})
}
