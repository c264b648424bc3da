package identitytoolkit

// ============================================================================
// Account Requests
// ============================================================================

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type idpRequest struct {
	PostBody            string `json:"postBody"`
	RequestURI          string `json:"requestUri"`
	ReturnSecureToken   bool   `json:"returnSecureToken"`
	ReturnIdpCredential bool   `json:"returnIdpCredential"`
}

// OOB request types accepted by accounts:sendOobCode.
const (
	oobPasswordReset = "PASSWORD_RESET"
	oobVerifyEmail   = "VERIFY_EMAIL"
)

type oobRequest struct {
	RequestType string `json:"requestType"`
	Email       string `json:"email,omitempty"`
	IDToken     string `json:"idToken,omitempty"`
}

type updateRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName,omitempty"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

// ============================================================================
// Account Responses
// ============================================================================

// tokenResponse is the token part shared by every sign-in style response.
type tokenResponse struct {
	LocalID      string `json:"localId"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`

	// ExpiresIn is the ID token lifetime in seconds, sent as a string
	ExpiresIn string `json:"expiresIn"`
}

type updateResponse struct {
	tokenResponse
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

type lookupResponse struct {
	Users []accountInfo `json:"users"`
}

type accountInfo struct {
	LocalID          string         `json:"localId"`
	Email            string         `json:"email"`
	EmailVerified    bool           `json:"emailVerified"`
	DisplayName      string         `json:"displayName"`
	PhotoURL         string         `json:"photoUrl"`
	Disabled         bool           `json:"disabled"`
	ProviderUserInfo []providerInfo `json:"providerUserInfo"`

	// CreatedAt is milliseconds since epoch, sent as a string
	CreatedAt string `json:"createdAt"`
}

type providerInfo struct {
	ProviderID  string `json:"providerId"`
	RawID       string `json:"rawId"`
	FederatedID string `json:"federatedId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
}

// ============================================================================
// Secure Token Service
// ============================================================================

// refreshResponse is the securetoken /v1/token reply. Unlike the accounts
// API it uses snake_case fields.
type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// ============================================================================
// Errors
// ============================================================================

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
