package authsdk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/authkit/pkg/idx"
	"github.com/aussiebroadwan/authkit/pkg/jwtx"
	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// Operation names used in logs and metrics.
const (
	OpSignInPassword        = "signin_password"
	OpSignInGoogle          = "signin_google"
	OpSignInApple           = "signin_apple"
	OpSignUp                = "signup"
	OpResetPassword         = "reset_password"
	OpSendEmailVerification = "send_email_verification"
	OpSignOut               = "signout"
	OpRefreshToken          = "refresh_token"
)

// Coordinator holds the session state for one hosting process. Create one
// with NewCoordinator, call Start once, and Close on shutdown.
type Coordinator struct {
	backend Backend
	cfg     Config
	logger  *slog.Logger
	metrics Metrics
	timer   *RefreshTimer

	refreshInterval time.Duration
	googleSDK       GoogleSignIn
	appleSDK        AppleSignIn

	password *PasswordProvider
	google   *GoogleProvider
	apple    *AppleProvider

	// mu guards the session fields and the timer transitions that follow
	// them. Callbacks are queued under mu and delivered in order after it is
	// released.
	mu          sync.Mutex
	state       State
	user        *User
	err         *AuthError
	closed      bool
	pending     []func()
	dispatching bool

	subMu       sync.Mutex
	unsubscribe func()
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithRefreshInterval overrides DefaultRefreshInterval.
func WithRefreshInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.refreshInterval = d }
}

// WithGoogleSignIn supplies the native Google SDK. Google sign-in is only
// available when it is enabled in Config and an SDK is supplied.
func WithGoogleSignIn(sdk GoogleSignIn) Option {
	return func(c *Coordinator) { c.googleSDK = sdk }
}

// WithAppleSignIn supplies the native Apple SDK.
func WithAppleSignIn(sdk AppleSignIn) Option {
	return func(c *Coordinator) { c.appleSDK = sdk }
}

// NewCoordinator wires the enabled providers and the refresh timer around
// backend. The coordinator starts in StateLoading.
func NewCoordinator(backend Backend, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		backend: backend,
		cfg:     cfg,
		logger:  slogx.Discard(),
		metrics: nopMetrics{},
		state:   StateLoading,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.timer = NewRefreshTimer(backend, c.logger, c.refreshInterval)
	c.timer.metrics = c.metrics

	providers := cfg.Providers
	if providers.EmailPassword.Enabled {
		c.password = NewPasswordProvider(backend, providers.EmailPassword, c.logger)
	}
	if providers.Google.Enabled && providers.Google.WebClientID != "" && c.googleSDK != nil {
		c.google = NewGoogleProvider(backend, c.googleSDK, providers.Google, c.logger)
	}
	if providers.Apple.Enabled && c.appleSDK != nil {
		c.apple = NewAppleProvider(backend, c.appleSDK, c.logger)
	}

	return c
}

// ============================================================================
// Lifecycle
// ============================================================================

// Start subscribes to backend session changes. Calling it again is a no-op.
func (c *Coordinator) Start() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.unsubscribe != nil {
		return
	}

	c.mu.Lock()
	c.closed = false
	c.mu.Unlock()

	c.unsubscribe = c.backend.OnSessionChange(c.handleSessionChange)
	c.logger.Info("auth coordinator started",
		"email_password", c.password != nil,
		"google", c.google != nil,
		"apple", c.apple != nil,
	)
}

// Close unsubscribes from the backend and stops the refresh timer. No later
// transition restarts the timer until Start is called again. The backend
// session itself is left alone. Calling it again is a no-op.
func (c *Coordinator) Close() {
	c.subMu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.subMu.Unlock()

	c.mu.Lock()
	c.closed = true
	c.timer.Stop()
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// ============================================================================
// State Accessors
// ============================================================================

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns a copy of the current user, or nil.
func (c *Coordinator) User() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user.clone()
}

// Err returns a copy of the most recent recorded error, or nil.
func (c *Coordinator) Err() *AuthError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err.clone()
}

func (c *Coordinator) Config() Config { return c.cfg }

// RefreshActive reports whether the background token refresh is running.
func (c *Coordinator) RefreshActive() bool { return c.timer.Active() }

// ============================================================================
// Session Notifications
// ============================================================================

// handleSessionChange applies one backend notification. A present user
// always means Authenticated with a fresh refresh timer; nil always means
// Unauthenticated with no timer.
func (c *Coordinator) handleSessionChange(bu *BackendUser) {
	if bu != nil {
		user := toUser(bu, "")

		c.mu.Lock()
		c.transitionLocked(StateAuthenticated, &user)
		c.mu.Unlock()

		c.logger.Info("session authenticated", "uid", user.UID, "provider", user.ProviderID)
		c.metrics.RecordStateChange(StateAuthenticated)
		c.dispatch()
		return
	}

	c.mu.Lock()
	c.transitionLocked(StateUnauthenticated, nil)
	c.mu.Unlock()

	c.logger.Info("session ended")
	c.metrics.RecordStateChange(StateUnauthenticated)
	c.dispatch()
}

// transitionLocked moves the session to state, starts or stops the refresh
// timer to match, and queues the state callback. c.mu must be held.
func (c *Coordinator) transitionLocked(state State, user *User) {
	c.state = state
	c.user = user

	switch state {
	case StateAuthenticated:
		if !c.closed {
			c.timer.Start()
		}
	case StateUnauthenticated:
		c.timer.Stop()
	}

	snapshot := user.clone()
	c.pending = append(c.pending, func() { c.notifyState(state, snapshot) })
}

// dispatch delivers queued callbacks in the order they were queued. Only one
// goroutine delivers at a time; a callback that triggers another transition
// has that callback delivered after it returns.
func (c *Coordinator) dispatch() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true
	defer func() {
		c.dispatching = false
		c.mu.Unlock()
	}()

	for len(c.pending) > 0 {
		fn := c.pending[0]
		c.pending = c.pending[1:]
		c.deliverLocked(fn)
	}
}

// deliverLocked runs fn with c.mu released and reacquires it, even if fn
// panics.
func (c *Coordinator) deliverLocked(fn func()) {
	c.mu.Unlock()
	defer c.mu.Lock()
	fn()
}

func (c *Coordinator) notifyState(state State, user *User) {
	if cb := c.cfg.Callbacks.OnAuthStateChanged; cb != nil {
		cb(state, user)
	}
}

func (c *Coordinator) notifyError(err *AuthError) {
	if cb := c.cfg.Callbacks.OnError; cb != nil {
		cb(err)
	}
}

// recordErrorLocked stores a copy of err and queues OnError. c.mu must be held.
func (c *Coordinator) recordErrorLocked(err *AuthError) {
	c.err = err.clone()
	c.pending = append(c.pending, func() { c.notifyError(err) })
}

func (c *Coordinator) recordError(err *AuthError) {
	c.mu.Lock()
	c.recordErrorLocked(err)
	c.mu.Unlock()
	c.dispatch()
}

func (c *Coordinator) clearError() {
	c.mu.Lock()
	c.err = nil
	c.mu.Unlock()
}

// ============================================================================
// Operations
// ============================================================================

// run executes one caller-facing operation and folds every failure into a
// Result: the error is recorded, reported to OnError and returned, never
// raised.
func (c *Coordinator) run(ctx context.Context, op string, fn func(context.Context) (*User, error)) Result {
	attempt := idx.New()
	ctx = slogx.WithAttrs(ctx, c.logger, "attempt_id", attempt.String(), "op", op)
	log := slogx.FromContext(ctx, c.logger)

	c.clearError()

	user, err := fn(ctx)
	if err != nil {
		authErr := TranslateError(err)
		log.Warn("auth operation failed", "code", authErr.Code, "error", authErr.Unwrap())
		c.metrics.RecordOperation(op, authErr.Code)
		c.recordError(authErr)
		return Result{Error: authErr}
	}

	log.Info("auth operation succeeded")
	c.metrics.RecordOperation(op, "")
	return Result{Success: true, User: user}
}

func disabled(what string) func(context.Context) (*User, error) {
	return func(context.Context) (*User, error) {
		return nil, ErrOperationNotAllowed.withMessage(fmt.Sprintf("%s is not enabled", what))
	}
}

// SignInWithPassword signs in with email and password.
func (c *Coordinator) SignInWithPassword(ctx context.Context, email, password string) Result {
	if c.password == nil {
		return c.run(ctx, OpSignInPassword, disabled("Email/password sign-in"))
	}
	return c.run(ctx, OpSignInPassword, func(ctx context.Context) (*User, error) {
		return c.password.SignIn(ctx, email, password)
	})
}

// SignInWithGoogle runs the Google sign-in flow.
func (c *Coordinator) SignInWithGoogle(ctx context.Context) Result {
	if c.google == nil {
		return c.run(ctx, OpSignInGoogle, disabled("Google sign-in"))
	}
	return c.run(ctx, OpSignInGoogle, c.google.SignIn)
}

// SignInWithApple runs the Sign in with Apple flow.
func (c *Coordinator) SignInWithApple(ctx context.Context) Result {
	if c.apple == nil {
		return c.run(ctx, OpSignInApple, disabled("Apple sign-in"))
	}
	return c.run(ctx, OpSignInApple, c.apple.SignIn)
}

// SignUp creates an email/password account. displayName may be empty.
func (c *Coordinator) SignUp(ctx context.Context, email, password, displayName string) Result {
	if c.password == nil {
		return c.run(ctx, OpSignUp, disabled("Email/password sign-up"))
	}
	return c.run(ctx, OpSignUp, func(ctx context.Context) (*User, error) {
		return c.password.SignUp(ctx, email, password, displayName)
	})
}

// ResetPassword sends a password reset email. The Result carries no user.
func (c *Coordinator) ResetPassword(ctx context.Context, email string) Result {
	if c.password == nil {
		return c.run(ctx, OpResetPassword, disabled("Password reset"))
	}
	return c.run(ctx, OpResetPassword, func(ctx context.Context) (*User, error) {
		return nil, c.password.SendPasswordReset(ctx, email)
	})
}

// SendEmailVerification emails the current user a verification link.
func (c *Coordinator) SendEmailVerification(ctx context.Context) Result {
	if c.password == nil {
		return c.run(ctx, OpSendEmailVerification, disabled("Email verification"))
	}
	return c.run(ctx, OpSendEmailVerification, func(ctx context.Context) (*User, error) {
		return nil, c.password.SendVerificationEmail(ctx)
	})
}

// SignOut ends the backend session (and the Google session when Google is
// enabled). Failures are recorded and reported through OnError only.
func (c *Coordinator) SignOut(ctx context.Context) {
	log := slogx.FromContext(ctx, c.logger)

	if err := c.backend.SignOut(ctx); err != nil {
		authErr := TranslateError(err)
		log.Warn("sign-out failed", "code", authErr.Code, "error", err)
		c.metrics.RecordOperation(OpSignOut, authErr.Code)
		c.recordError(authErr)
		return
	}

	if c.google != nil {
		if err := c.google.SignOut(ctx); err != nil {
			log.Warn("google sign-out failed", "error", err)
		}
	}

	c.clearError()
	c.timer.Stop()
	c.metrics.RecordOperation(OpSignOut, "")

	// Backends normally notify the sign-out themselves; cover those that
	// deliver it later (or not at all).
	if c.State() != StateUnauthenticated {
		c.handleSessionChange(nil)
	}
}

// RefreshToken forces an ID token refresh. On failure a signed-in session
// moves to StateExpired with a TOKEN_EXPIRED error while the last known user
// is kept; no re-authentication is attempted. Without a user the error is
// recorded and the state is left alone. A successful refresh from
// StateExpired returns the session to StateAuthenticated.
func (c *Coordinator) RefreshToken(ctx context.Context) (string, error) {
	log := slogx.FromContext(ctx, c.logger)

	token, err := c.backend.IDToken(ctx, true)
	if err != nil {
		authErr := TranslateError(err)
		if authErr.Code != CodeTokenExpired {
			authErr = ErrTokenExpired.withCause(authErr)
		}

		c.mu.Lock()
		expired := c.user != nil
		if expired {
			c.state = StateExpired
		}
		c.recordErrorLocked(authErr)
		c.mu.Unlock()

		log.Warn("token refresh failed", "error", err, "expired", expired)
		c.metrics.RecordRefresh(RefreshTriggerManual, false)
		if expired {
			c.metrics.RecordStateChange(StateExpired)
		}
		c.dispatch()
		return "", authErr
	}

	c.metrics.RecordRefresh(RefreshTriggerManual, true)

	c.mu.Lock()
	recovered := c.state == StateExpired && c.user != nil
	if recovered {
		c.err = nil
		c.transitionLocked(StateAuthenticated, c.user)
	}
	c.mu.Unlock()

	if recovered {
		log.Info("session recovered after refresh")
		c.metrics.RecordStateChange(StateAuthenticated)
		c.dispatch()
	}

	return token, nil
}

// IDToken returns the current ID token, refreshing it only when it is about
// to expire. It returns "" when nobody is signed in.
func (c *Coordinator) IDToken(ctx context.Context) (string, error) {
	token, err := c.backend.IDToken(ctx, false)
	if err != nil {
		return "", TranslateError(err)
	}
	return token, nil
}

// TokenClaims decodes the current ID token's claims without verifying it.
// It returns nil when nobody is signed in.
func (c *Coordinator) TokenClaims(ctx context.Context) (map[string]any, error) {
	token, err := c.IDToken(ctx)
	if err != nil || token == "" {
		return nil, err
	}

	claims, err := jwtx.DecodeMap(token)
	if err != nil {
		slogx.FromContext(ctx, c.logger).Error("failed to decode token claims", "error", err)
		return nil, err
	}
	return claims, nil
}
