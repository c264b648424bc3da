package authsdk

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// PasswordProvider signs users in with email and password.
type PasswordProvider struct {
	backend                  Backend
	requireEmailVerification bool
	logger                   *slog.Logger
}

// NewPasswordProvider creates an email/password adapter over backend.
func NewPasswordProvider(backend Backend, cfg EmailPasswordConfig, logger *slog.Logger) *PasswordProvider {
	if logger == nil {
		logger = slogx.Discard()
	}
	return &PasswordProvider{
		backend:                  backend,
		requireEmailVerification: cfg.RequireEmailVerification,
		logger:                   logger,
	}
}

func (p *PasswordProvider) ProviderID() string { return ProviderPassword }

// SignIn authenticates with email and password. When email verification is
// required and the account is unverified, the fresh session is signed out
// again and EMAIL_NOT_VERIFIED is returned.
func (p *PasswordProvider) SignIn(ctx context.Context, email, password string) (*User, error) {
	bu, err := p.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, TranslateError(err)
	}

	if p.requireEmailVerification && !bu.EmailVerified {
		slogx.FromContext(ctx, p.logger).Info("rejecting unverified account", "uid", bu.UID)
		if err := p.backend.SignOut(ctx); err != nil {
			return nil, TranslateError(err)
		}
		return nil, ErrEmailNotVerified.clone()
	}

	user := toUser(bu, ProviderPassword)
	return &user, nil
}

// SignUp creates an account, sets its display name when given and sends a
// verification email when verification is required.
func (p *PasswordProvider) SignUp(ctx context.Context, email, password, displayName string) (*User, error) {
	bu, err := p.backend.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, TranslateError(err)
	}

	if displayName != "" {
		updated, err := p.backend.UpdateProfile(ctx, displayName)
		if err != nil {
			return nil, TranslateError(err)
		}
		bu = updated
	}

	if p.requireEmailVerification {
		if err := p.backend.SendEmailVerification(ctx); err != nil {
			return nil, TranslateError(err)
		}
	}

	user := toUser(bu, ProviderPassword)
	return &user, nil
}

func (p *PasswordProvider) SendPasswordReset(ctx context.Context, email string) error {
	if err := p.backend.SendPasswordReset(ctx, email); err != nil {
		return TranslateError(err)
	}
	return nil
}

func (p *PasswordProvider) SendVerificationEmail(ctx context.Context) error {
	if p.backend.CurrentUser() == nil {
		return ErrNoCurrentUser.clone()
	}
	if err := p.backend.SendEmailVerification(ctx); err != nil {
		return TranslateError(err)
	}
	return nil
}
