/*
Package authsdk provides a client-side session coordinator over a hosted identity backend.

# Overview

The authsdk package signs users in with email/password, Google or Apple, keeps track of
the resulting session and proactively refreshes its ID token. The identity protocol itself
lives in the backend and in the native provider SDKs; this package adapts each sign-in
method to the backend, normalizes every failure into a single AuthError shape and exposes
one Coordinator to the host application.

# Coordinator

A Coordinator is constructed once per process and shared by injection:

	backend := identitytoolkit.NewClient(identitytoolkit.Config{APIKey: apiKey})

	coord := authsdk.NewCoordinator(backend, authsdk.Config{
		Providers: authsdk.ProvidersConfig{
			EmailPassword: authsdk.EmailPasswordConfig{Enabled: true},
		},
		Callbacks: authsdk.Callbacks{
			OnAuthStateChanged: func(state authsdk.State, user *authsdk.User) {
				fmt.Println("auth state:", state)
			},
		},
	}, authsdk.WithLogger(logger))

	coord.Start()
	defer coord.Close()

The coordinator starts in StateLoading and moves as follows:

  - Backend reports a user: StateAuthenticated, refresh timer started
  - Backend reports no user: StateUnauthenticated, refresh timer stopped
  - RefreshToken fails: StateExpired with a TOKEN_EXPIRED error, user kept
  - RefreshToken succeeds while expired: back to StateAuthenticated

# Results

Sign-in, sign-up, password reset and verification email operations never return a raw
error. They return a Result whose Error field carries an *AuthError on failure:

	res := coord.SignInWithPassword(ctx, email, password)
	if !res.Success {
		if res.Error.Code == authsdk.CodeInvalidCredentials {
			// show res.Error.Message
		}
		return
	}
	fmt.Println("signed in as", res.User.UID)

The failure is also stored (see Coordinator.Err) and passed to Callbacks.OnError.

# Error Handling

TranslateError maps backend error codes to the local taxonomy (INVALID_CREDENTIALS,
USER_NOT_FOUND, TOKEN_EXPIRED, ...). Codes the table does not know become UNKNOWN_ERROR
with the backend's message. AuthError matches by code, so the predefined values work with
errors.Is:

	if errors.Is(err, authsdk.ErrTokenExpired) {
		// prompt for re-authentication
	}

# Token Refresh

While authenticated a RefreshTimer forces an ID token refresh every
DefaultRefreshInterval (50 minutes). Background failures are logged and swallowed; only an
explicit RefreshToken call can move the session to StateExpired. Starting the timer always
stops the previous ticker first, so at most one is ever running.

# Thread Safety

Coordinator methods are safe for concurrent use. Each transition updates the state, the
user and the refresh timer together under the coordinator's lock and queues its callback.
Callbacks are delivered in transition order and never while the lock is held, so a callback
may call back into the coordinator; the transition it causes is reported after it returns.
Callbacks normally run on the goroutine that produced the event. When another goroutine is
already delivering, that goroutine delivers them instead.

Errors handed out by the coordinator are copies. The Err* variables exist as errors.Is
targets and are never returned directly.
*/
package authsdk
