package identitytoolkit

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/aussiebroadwan/authkit/pkg/authsdk"
)

// SignInWithPassword signs in with email and password.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*authsdk.BackendUser, error) {
	var resp tokenResponse
	err := c.postJSON(ctx, "signInWithPassword", passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, resp)
}

// CreateAccount registers a new email/password account and signs it in.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (*authsdk.BackendUser, error) {
	var resp tokenResponse
	err := c.postJSON(ctx, "signUp", passwordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, resp)
}

// SignInWithCredential exchanges a federated provider's ID token for a
// backend session.
func (c *Client) SignInWithCredential(ctx context.Context, cred authsdk.Credential) (*authsdk.BackendUser, error) {
	postBody := url.Values{
		"id_token":   {cred.IDToken},
		"providerId": {cred.ProviderID},
	}
	if cred.RawNonce != "" {
		postBody.Set("nonce", cred.RawNonce)
	}

	var resp tokenResponse
	err := c.postJSON(ctx, "signInWithIdp", idpRequest{
		PostBody:            postBody.Encode(),
		RequestURI:          c.requestURI,
		ReturnSecureToken:   true,
		ReturnIdpCredential: true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, resp)
}

// SendPasswordReset emails a password reset link to email.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.postJSON(ctx, "sendOobCode", oobRequest{
		RequestType: oobPasswordReset,
		Email:       email,
	}, nil)
}

// SendEmailVerification emails a verification link to the signed-in user.
func (c *Client) SendEmailVerification(ctx context.Context) error {
	token, err := c.IDToken(ctx, false)
	if err != nil {
		return err
	}
	if token == "" {
		return errNoCurrentUser()
	}

	return c.postJSON(ctx, "sendOobCode", oobRequest{
		RequestType: oobVerifyEmail,
		IDToken:     token,
	}, nil)
}

// UpdateProfile sets the signed-in user's display name. Listeners are not
// notified: the session owner is unchanged.
func (c *Client) UpdateProfile(ctx context.Context, displayName string) (*authsdk.BackendUser, error) {
	token, err := c.IDToken(ctx, false)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errNoCurrentUser()
	}

	var resp updateResponse
	err = c.postJSON(ctx, "update", updateRequest{
		IDToken:           token,
		DisplayName:       displayName,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil || s.user.UID != resp.LocalID {
		return nil, errNoCurrentUser()
	}

	updated := copyUser(s.user)
	updated.DisplayName = resp.DisplayName
	s.user = updated
	if resp.IDToken != "" {
		s.idToken = resp.IDToken
		s.refreshToken = resp.RefreshToken
		s.expiresAt = tokenExpiry(resp.IDToken, resp.ExpiresIn)
	}
	return copyUser(updated), nil
}

// lookup fetches the full account record behind idToken.
func (c *Client) lookup(ctx context.Context, idToken string) (*authsdk.BackendUser, error) {
	var resp lookupResponse
	if err := c.postJSON(ctx, "lookup", lookupRequest{IDToken: idToken}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, &authsdk.BackendError{Code: "auth/user-not-found", Message: "account lookup returned no user"}
	}
	return toBackendUser(resp.Users[0]), nil
}

func toBackendUser(a accountInfo) *authsdk.BackendUser {
	user := &authsdk.BackendUser{
		UID:           a.LocalID,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		PhotoURL:      a.PhotoURL,
		EmailVerified: a.EmailVerified,
	}

	if ms, err := strconv.ParseInt(a.CreatedAt, 10, 64); err == nil && ms > 0 {
		user.CreationTime = time.UnixMilli(ms).UTC()
	}

	for _, p := range a.ProviderUserInfo {
		uid := p.RawID
		if uid == "" {
			uid = p.FederatedID
		}
		user.ProviderData = append(user.ProviderData, authsdk.ProviderInfo{
			ProviderID:  p.ProviderID,
			UID:         uid,
			Email:       p.Email,
			DisplayName: p.DisplayName,
			PhotoURL:    p.PhotoURL,
		})
	}

	return user
}

func errNoCurrentUser() error {
	return &authsdk.BackendError{Code: CodeNoCurrentUser, Message: "No user signed in"}
}
