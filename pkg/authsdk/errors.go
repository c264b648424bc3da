package authsdk

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ============================================================================
// Error Codes
// ============================================================================

// ErrorCode is the stable, provider-independent discriminant of an AuthError.
type ErrorCode string

const (
	CodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	CodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	CodeEmailAlreadyInUse   ErrorCode = "EMAIL_ALREADY_IN_USE"
	CodeWeakPassword        ErrorCode = "WEAK_PASSWORD"
	CodeInvalidEmail        ErrorCode = "INVALID_EMAIL"
	CodeNetwork             ErrorCode = "NETWORK_ERROR"
	CodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
	CodeTooManyRequests     ErrorCode = "TOO_MANY_REQUESTS"
	CodeUserDisabled        ErrorCode = "USER_DISABLED"
	CodeOperationNotAllowed ErrorCode = "OPERATION_NOT_ALLOWED"
	CodeEmailNotVerified    ErrorCode = "EMAIL_NOT_VERIFIED"
	CodeUnknown             ErrorCode = "UNKNOWN_ERROR"

	// Adapter-local conditions. They never come from the backend.
	CodeSignInCancelled    ErrorCode = "SIGN_IN_CANCELLED"
	CodeMissingToken       ErrorCode = "MISSING_TOKEN"
	CodeConfigurationError ErrorCode = "CONFIGURATION_ERROR"
	CodeNoCurrentUser      ErrorCode = "NO_CURRENT_USER"
)

const defaultUnknownMessage = "An authentication error occurred"

// ============================================================================
// AuthError
// ============================================================================

// AuthError is the single normalized failure type surfaced by the SDK.
// Values are never mutated after construction. Every AuthError handed out is
// a fresh copy; the Err* variables are errors.Is targets only.
type AuthError struct {
	// Code is the stable error discriminant (e.g. INVALID_CREDENTIALS)
	Code ErrorCode `json:"code"`

	// Message is a human-readable message safe to show to the user
	Message string `json:"message"`

	// Cause is the original backend or provider error, kept for diagnostics
	Cause error `json:"-"`
}

// NewAuthError builds an AuthError wrapping cause.
func NewAuthError(code ErrorCode, message string, cause error) *AuthError {
	return &AuthError{Code: code, Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the original error to errors.Is / errors.As.
func (e *AuthError) Unwrap() error { return e.Cause }

// Is matches any AuthError carrying the same code, so the sentinels below
// work with errors.Is regardless of message or cause.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code
}

// clone returns a copy of e so callers never share the sentinels.
func (e *AuthError) clone() *AuthError {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

// withCause returns a copy of e that wraps cause.
func (e *AuthError) withCause(cause error) *AuthError {
	return &AuthError{Code: e.Code, Message: e.Message, Cause: cause}
}

// withMessage returns a copy of e with a different message.
func (e *AuthError) withMessage(message string) *AuthError {
	return &AuthError{Code: e.Code, Message: message, Cause: e.Cause}
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrInvalidCredentials  = &AuthError{Code: CodeInvalidCredentials, Message: "Invalid email or password"}
	ErrUserNotFound        = &AuthError{Code: CodeUserNotFound, Message: "User account does not exist"}
	ErrEmailAlreadyInUse   = &AuthError{Code: CodeEmailAlreadyInUse, Message: "Email address is already in use"}
	ErrWeakPassword        = &AuthError{Code: CodeWeakPassword, Message: "Password should be at least 6 characters"}
	ErrInvalidEmail        = &AuthError{Code: CodeInvalidEmail, Message: "Invalid email format"}
	ErrNetwork             = &AuthError{Code: CodeNetwork, Message: "Network connection failed. Please check your internet"}
	ErrTokenExpired        = &AuthError{Code: CodeTokenExpired, Message: "Authentication token has expired"}
	ErrTooManyRequests     = &AuthError{Code: CodeTooManyRequests, Message: "Too many requests. Please try again later"}
	ErrUserDisabled        = &AuthError{Code: CodeUserDisabled, Message: "This account has been disabled"}
	ErrOperationNotAllowed = &AuthError{Code: CodeOperationNotAllowed, Message: "This operation is not allowed"}
	ErrEmailNotVerified    = &AuthError{Code: CodeEmailNotVerified, Message: "Email address not verified"}
	ErrUnknown             = &AuthError{Code: CodeUnknown, Message: defaultUnknownMessage}

	ErrSignInCancelled = &AuthError{Code: CodeSignInCancelled, Message: "Sign-in cancelled"}
	ErrMissingToken    = &AuthError{Code: CodeMissingToken, Message: "No identity token returned by the provider"}
	ErrConfiguration   = &AuthError{Code: CodeConfigurationError, Message: "Sign-in provider is misconfigured"}
	ErrNoCurrentUser   = &AuthError{Code: CodeNoCurrentUser, Message: "No user signed in"}
)

// backendCodes maps backend error codes (without the "auth/" prefix) to the
// local taxonomy. Anything absent falls through to CodeUnknown.
var backendCodes = map[string]*AuthError{
	"wrong-password":         ErrInvalidCredentials,
	"invalid-credential":     ErrInvalidCredentials,
	"user-not-found":         ErrUserNotFound,
	"email-already-in-use":   ErrEmailAlreadyInUse,
	"weak-password":          ErrWeakPassword,
	"invalid-email":          ErrInvalidEmail,
	"network-request-failed": ErrNetwork,
	"timeout":                ErrNetwork,
	"id-token-expired":       ErrTokenExpired,
	"user-token-expired":     ErrTokenExpired,
	"too-many-requests":      ErrTooManyRequests,
	"user-disabled":          ErrUserDisabled,
	"operation-not-allowed":  ErrOperationNotAllowed,
}

// ============================================================================
// Collaborator Errors
// ============================================================================

// BackendError is the failure shape produced by an identity Backend.
// Code uses the backend's vocabulary, e.g. "auth/wrong-password".
type BackendError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// ProviderError is the failure shape produced by a federated provider SDK.
// Adapters recognize Code by value (e.g. "12501", "SIGN_IN_CANCELLED").
type ProviderError struct {
	Provider string
	Code     string
	Message  string
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
}

// ============================================================================
// Translation
// ============================================================================

// TranslateError normalizes any error into an AuthError. It is total: nil is
// the only input that yields nil, and unmapped failures become UNKNOWN_ERROR
// carrying the original message.
func TranslateError(err error) *AuthError {
	if err == nil {
		return nil
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.clone()
	}

	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		code := strings.TrimPrefix(backendErr.Code, "auth/")
		if mapped, ok := backendCodes[code]; ok {
			return mapped.withCause(err)
		}

		msg := backendErr.Message
		if msg == "" {
			msg = defaultUnknownMessage
		}
		return NewAuthError(CodeUnknown, msg, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrNetwork.withCause(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrNetwork.withCause(err)
	}

	msg := err.Error()
	if msg == "" {
		msg = defaultUnknownMessage
	}
	return NewAuthError(CodeUnknown, msg, err)
}

// IsNetworkError reports whether err normalizes to NETWORK_ERROR. Callers use
// it to offer a retry rather than a new sign-in.
func IsNetworkError(err error) bool {
	return codeOf(err) == CodeNetwork
}

// IsTokenError reports whether err normalizes to TOKEN_EXPIRED. Callers use it
// to prompt re-authentication.
func IsTokenError(err error) bool {
	return codeOf(err) == CodeTokenExpired
}

func codeOf(err error) ErrorCode {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return ""
}
