package identitytoolkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/authkit/pkg/authsdk"
)

// Backend error codes produced by this client.
const (
	CodeNetworkRequestFailed = "auth/network-request-failed"
	CodeTimeout              = "auth/timeout"
	CodeInternalError        = "auth/internal-error"
	CodeNoCurrentUser        = "auth/no-current-user"
)

// serverCodes maps the server's error message keys to backend error codes.
var serverCodes = map[string]string{
	"EMAIL_NOT_FOUND":                "auth/user-not-found",
	"USER_NOT_FOUND":                 "auth/user-not-found",
	"INVALID_PASSWORD":               "auth/wrong-password",
	"INVALID_LOGIN_CREDENTIALS":      "auth/invalid-credential",
	"INVALID_IDP_RESPONSE":           "auth/invalid-credential",
	"EMAIL_EXISTS":                   "auth/email-already-in-use",
	"WEAK_PASSWORD":                  "auth/weak-password",
	"INVALID_EMAIL":                  "auth/invalid-email",
	"TOO_MANY_ATTEMPTS_TRY_LATER":    "auth/too-many-requests",
	"USER_DISABLED":                  "auth/user-disabled",
	"OPERATION_NOT_ALLOWED":          "auth/operation-not-allowed",
	"PASSWORD_LOGIN_DISABLED":        "auth/operation-not-allowed",
	"TOKEN_EXPIRED":                  "auth/user-token-expired",
	"INVALID_ID_TOKEN":               "auth/invalid-user-token",
	"INVALID_REFRESH_TOKEN":          "auth/invalid-user-token",
	"MISSING_PASSWORD":               "auth/missing-password",
	"CREDENTIAL_TOO_OLD_LOGIN_AGAIN": "auth/requires-recent-login",
}

// parseErrorResponse converts a non-2xx reply into an *authsdk.BackendError.
// The server sends messages like "WEAK_PASSWORD : Password should be at
// least 6 characters"; the key before " : " selects the code.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return &authsdk.BackendError{
			Code:    CodeInternalError,
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	key, detail, _ := strings.Cut(errResp.Error.Message, " : ")
	key = strings.TrimSpace(key)

	code, ok := serverCodes[key]
	if !ok {
		code = "auth/" + strings.ReplaceAll(strings.ToLower(key), "_", "-")
	}

	msg := strings.TrimSpace(detail)
	if msg == "" {
		msg = key
	}
	return &authsdk.BackendError{Code: code, Message: msg}
}

// transportError classifies a failed round trip.
func transportError(err error) error {
	code := CodeNetworkRequestFailed

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		code = CodeTimeout
	}
	return fmt.Errorf("failed to send request: %w", &authsdk.BackendError{Code: code, Message: err.Error()})
}
