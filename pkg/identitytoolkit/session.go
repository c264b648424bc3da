package identitytoolkit

import (
	"context"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/aussiebroadwan/authkit/pkg/authsdk"
	"github.com/aussiebroadwan/authkit/pkg/jwtx"
	"github.com/aussiebroadwan/authkit/pkg/slogx"
)

// session is the signed-in state. Fields are guarded by Client.mu.
type session struct {
	idToken      string
	refreshToken string
	expiresAt    time.Time
	user         *authsdk.BackendUser
}

func (s *session) userCopy() *authsdk.BackendUser {
	if s == nil {
		return nil
	}
	return copyUser(s.user)
}

func (s *session) fresh(now time.Time) bool {
	return now.Add(tokenBuffer).Before(s.expiresAt)
}

func copyUser(u *authsdk.BackendUser) *authsdk.BackendUser {
	if u == nil {
		return nil
	}
	c := *u
	c.ProviderData = slices.Clone(u.ProviderData)
	return &c
}

// tokenExpiry works out when idToken expires, preferring the lifetime the
// server sent alongside it and falling back to the token's exp claim.
func tokenExpiry(idToken, expiresIn string) time.Time {
	now := time.Now()
	if secs, err := strconv.Atoi(expiresIn); err == nil && secs > 0 {
		return now.Add(time.Duration(secs) * time.Second)
	}
	if claims, err := jwtx.Decode(idToken); err == nil {
		if exp := claims.ExpiresAtTime(); !exp.IsZero() {
			return exp
		}
	}
	return now.Add(time.Hour)
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (c *Client) CurrentUser() *authsdk.BackendUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.userCopy()
}

// IDToken returns the session's ID token. It is refreshed through the secure
// token service when forceRefresh is set or it expires within 30 seconds.
// A failed refresh leaves the session in place.
func (c *Client) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.Lock()
	s := c.session
	if s == nil {
		c.mu.Unlock()
		return "", nil
	}
	if !forceRefresh && s.fresh(time.Now()) {
		token := s.idToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another goroutine may have refreshed or signed out while we waited
	c.mu.Lock()
	s = c.session
	if s == nil {
		c.mu.Unlock()
		return "", nil
	}
	if !forceRefresh && s.fresh(time.Now()) {
		token := s.idToken
		c.mu.Unlock()
		return token, nil
	}
	refreshToken := s.refreshToken
	c.mu.Unlock()

	var resp refreshResponse
	err := c.postForm(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}, &resp)
	if err != nil {
		slogx.FromContext(ctx, c.logger).Warn("id token refresh failed", "error", err)
		return "", err
	}

	c.mu.Lock()
	if c.session == s {
		s.idToken = resp.IDToken
		if resp.RefreshToken != "" {
			s.refreshToken = resp.RefreshToken
		}
		s.expiresAt = tokenExpiry(resp.IDToken, resp.ExpiresIn)
	}
	c.mu.Unlock()

	slogx.FromContext(ctx, c.logger).Debug("id token refreshed", "uid", resp.UserID)
	return resp.IDToken, nil
}

// SignOut drops the local session and notifies listeners. The server keeps
// no per-client session, so nothing is sent.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	had := c.session != nil
	c.session = nil
	c.mu.Unlock()

	if had {
		slogx.FromContext(ctx, c.logger).Info("signed out")
		c.notify(nil)
	}
	return nil
}

// establish looks up the account behind a fresh token response, stores the
// session and notifies listeners.
func (c *Client) establish(ctx context.Context, tr tokenResponse) (*authsdk.BackendUser, error) {
	user, err := c.lookup(ctx, tr.IDToken)
	if err != nil {
		return nil, err
	}

	s := &session{
		idToken:      tr.IDToken,
		refreshToken: tr.RefreshToken,
		expiresAt:    tokenExpiry(tr.IDToken, tr.ExpiresIn),
		user:         user,
	}

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	slogx.FromContext(ctx, c.logger).Info("signed in", "uid", user.UID)
	c.notify(user)
	return copyUser(user), nil
}
