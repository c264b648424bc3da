package authsdk

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// fakeBackend is an in-memory Backend that notifies listeners synchronously,
// the same way identitytoolkit.Client does.
type fakeBackend struct {
	mu        sync.Mutex
	user      *BackendUser
	listeners map[int]func(*BackendUser)
	nextID    int

	// canned responses
	signInUser *BackendUser
	signInErr  error
	createUser *BackendUser
	createErr  error
	credUser   *BackendUser
	credErr    error
	resetErr   error
	verifyErr  error
	updateErr  error
	signOutErr error
	token      string
	tokenErr   error

	lastCred       Credential
	lastResetEmail string
	updatedName    string

	signOutCalls atomic.Int32
	verifyCalls  atomic.Int32
	updateCalls  atomic.Int32
	forcedTokens atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		listeners: make(map[int]func(*BackendUser)),
		token:     "id-token",
	}
}

func (b *fakeBackend) setUser(bu *BackendUser) {
	b.mu.Lock()
	b.user = bu
	listeners := make([]func(*BackendUser), 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.Unlock()

	for _, l := range listeners {
		l(bu)
	}
}

func (b *fakeBackend) listenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func (b *fakeBackend) SignInWithPassword(_ context.Context, _, _ string) (*BackendUser, error) {
	if b.signInErr != nil {
		return nil, b.signInErr
	}
	b.setUser(b.signInUser)
	return b.signInUser, nil
}

func (b *fakeBackend) CreateAccount(_ context.Context, email, _ string) (*BackendUser, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	bu := b.createUser
	if bu == nil {
		bu = &BackendUser{UID: "new-uid", Email: email}
	}
	b.setUser(bu)
	return bu, nil
}

func (b *fakeBackend) SignInWithCredential(_ context.Context, cred Credential) (*BackendUser, error) {
	b.mu.Lock()
	b.lastCred = cred
	b.mu.Unlock()

	if b.credErr != nil {
		return nil, b.credErr
	}
	b.setUser(b.credUser)
	return b.credUser, nil
}

func (b *fakeBackend) SendPasswordReset(_ context.Context, email string) error {
	b.mu.Lock()
	b.lastResetEmail = email
	b.mu.Unlock()
	return b.resetErr
}

func (b *fakeBackend) SendEmailVerification(context.Context) error {
	b.verifyCalls.Add(1)
	return b.verifyErr
}

func (b *fakeBackend) UpdateProfile(_ context.Context, displayName string) (*BackendUser, error) {
	b.updateCalls.Add(1)
	if b.updateErr != nil {
		return nil, b.updateErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.updatedName = displayName
	if b.user == nil {
		return nil, &BackendError{Code: "auth/no-current-user"}
	}
	updated := *b.user
	updated.DisplayName = displayName
	b.user = &updated
	return &updated, nil
}

func (b *fakeBackend) SignOut(context.Context) error {
	b.signOutCalls.Add(1)
	if b.signOutErr != nil {
		return b.signOutErr
	}
	b.setUser(nil)
	return nil
}

func (b *fakeBackend) CurrentUser() *BackendUser {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.user
}

func (b *fakeBackend) IDToken(_ context.Context, forceRefresh bool) (string, error) {
	if forceRefresh {
		b.forcedTokens.Add(1)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tokenErr != nil {
		return "", b.tokenErr
	}
	if b.user == nil {
		return "", nil
	}
	return b.token, nil
}

func (b *fakeBackend) setTokenErr(err error) {
	b.mu.Lock()
	b.tokenErr = err
	b.mu.Unlock()
}

func (b *fakeBackend) OnSessionChange(listener func(*BackendUser)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	current := b.user
	b.mu.Unlock()

	listener(current)

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// fakeGoogle is a scripted GoogleSignIn.
type fakeGoogle struct {
	configureErrs []error
	playErr       error
	result        *GoogleSignInResult
	signInErr     error
	signOutErr    error

	configureCalls atomic.Int32
	signOutCalls   atomic.Int32
	lastOpts       GoogleSignInOptions
}

func (g *fakeGoogle) Configure(_ context.Context, opts GoogleSignInOptions) error {
	n := int(g.configureCalls.Add(1))
	g.lastOpts = opts
	if n <= len(g.configureErrs) {
		return g.configureErrs[n-1]
	}
	return nil
}

func (g *fakeGoogle) HasPlayServices(context.Context) error { return g.playErr }

func (g *fakeGoogle) SignIn(context.Context) (*GoogleSignInResult, error) {
	if g.signInErr != nil {
		return nil, g.signInErr
	}
	return g.result, nil
}

func (g *fakeGoogle) SignOut(context.Context) error {
	g.signOutCalls.Add(1)
	return g.signOutErr
}

// fakeApple is a scripted AppleSignIn.
type fakeApple struct {
	resp    *AppleSignInResponse
	err     error
	lastReq AppleSignInRequest
}

func (a *fakeApple) PerformRequest(_ context.Context, req AppleSignInRequest) (*AppleSignInResponse, error) {
	a.lastReq = req
	if a.err != nil {
		return nil, a.err
	}
	return a.resp, nil
}

// stateRecorder collects callback invocations.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
	users  []*User
	errs   []*AuthError
}

func (r *stateRecorder) callbacks() Callbacks {
	return Callbacks{
		OnAuthStateChanged: func(state State, user *User) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.states = append(r.states, state)
			r.users = append(r.users, user)
		},
		OnError: func(err *AuthError) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func (r *stateRecorder) lastState() (State, *User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return "", nil
	}
	return r.states[len(r.states)-1], r.users[len(r.users)-1]
}

func (r *stateRecorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func testUser(uid string) *BackendUser {
	return &BackendUser{
		UID:           uid,
		Email:         uid + "@example.com",
		DisplayName:   "Test User",
		EmailVerified: true,
		ProviderData:  []ProviderInfo{{ProviderID: ProviderPassword, UID: uid}},
		CreationTime:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
