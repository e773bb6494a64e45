package errors

import "net/http"

// Identity backend error codes. Backends report their own codes verbatim;
// these are the ones the shell maps to specific messages.
const (
	AuthCodeInvalidEmail       = "INVALID_EMAIL"
	AuthCodeWeakPassword       = "WEAK_PASSWORD"
	AuthCodeEmailExists        = "EMAIL_EXISTS"
	AuthCodeInvalidPassword    = "INVALID_PASSWORD"
	AuthCodeEmailNotFound      = "EMAIL_NOT_FOUND"
	AuthCodeUserDisabled       = "USER_DISABLED"
	AuthCodeInvalidCredentials = "INVALID_LOGIN_CREDENTIALS"
	AuthCodeUnauthenticated    = "UNAUTHENTICATED"
	AuthCodeSessionRevoked     = "SESSION_REVOKED"
	AuthCodeUnknown            = "AUTH_FAILED"
)

var authMessages = map[string]string{
	AuthCodeInvalidEmail:       "The email address is badly formatted",
	AuthCodeWeakPassword:       "Password should be at least 6 characters",
	AuthCodeEmailExists:        "The email address is already in use by another account",
	AuthCodeInvalidPassword:    "The password is invalid",
	AuthCodeEmailNotFound:      "There is no user record corresponding to this email",
	AuthCodeUserDisabled:       "The user account has been disabled",
	AuthCodeInvalidCredentials: "The email or password is incorrect",
	AuthCodeUnauthenticated:    "You must be signed in",
	AuthCodeSessionRevoked:     "Your session has expired, please sign in again",
}

// AuthError is a credential or session failure reported by the identity backend.
type AuthError struct {
	code    string
	message string
	err     error
}

// ErrUnauthenticated is returned by operations that need a signed-in user.
var ErrUnauthenticated = &AuthError{code: AuthCodeUnauthenticated, message: authMessages[AuthCodeUnauthenticated]}

// NewAuthError creates an AuthError carrying the backend code. backendMessage is
// used when the code has no known message.
func NewAuthError(code, backendMessage string, cause error) *AuthError {
	if code == "" {
		code = AuthCodeUnknown
	}
	message, ok := authMessages[code]
	if !ok {
		message = backendMessage
	}
	if message == "" {
		message = "Authentication failed"
	}

	return &AuthError{code: code, message: message, err: cause}
}

func (e *AuthError) Error() string {
	if e.err != nil {
		return e.code + ": " + e.err.Error()
	}

	return e.code + ": " + e.message
}

// Unwrap returns the backend error.
func (e *AuthError) Unwrap() error {
	return e.err
}

// Is matches another AuthError with the same code.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)

	return ok && t.code == e.code
}

// Code returns the backend code.
func (e *AuthError) Code() string {
	return e.code
}

// HTTPCode returns the HTTP status code
func (e *AuthError) HTTPCode() int {
	switch e.code {
	case AuthCodeInvalidEmail, AuthCodeWeakPassword:
		return http.StatusBadRequest
	case AuthCodeEmailExists:
		return http.StatusConflict
	case AuthCodeUserDisabled:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}

// ErrorCode returns the backend code.
func (e *AuthError) ErrorCode() string {
	return e.code
}

// Message returns the user-facing message.
func (e *AuthError) Message() string {
	return e.message
}

// Details returns the backend error text, if any.
func (e *AuthError) Details() string {
	if e.err == nil {
		return ""
	}

	return e.err.Error()
}
