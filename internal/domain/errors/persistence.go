package errors

import "net/http"

// PersistenceCode classifies document store failures.
type PersistenceCode string

const (
	PersistencePermissionDenied PersistenceCode = "PERMISSION_DENIED"
	PersistenceNotFound         PersistenceCode = "NOT_FOUND"
	PersistenceUnavailable      PersistenceCode = "UNAVAILABLE"
	PersistenceAborted          PersistenceCode = "ABORTED"
	PersistenceInternal         PersistenceCode = "INTERNAL"
)

// Sentinels for errors.Is checks.
var (
	ErrPermissionDenied = &PersistenceError{code: PersistencePermissionDenied}
	ErrDocumentNotFound = &PersistenceError{code: PersistenceNotFound}
	ErrUnavailable      = &PersistenceError{code: PersistenceUnavailable}
)

// PersistenceError is a read, write or stream failure from the document store.
type PersistenceError struct {
	code PersistenceCode
	op   string
	err  error
}

// NewPersistenceError creates a PersistenceError for operation op.
func NewPersistenceError(code PersistenceCode, op string, cause error) *PersistenceError {
	return &PersistenceError{code: code, op: op, err: cause}
}

func (e *PersistenceError) Error() string {
	msg := string(e.code)
	if e.op != "" {
		msg = e.op + ": " + msg
	}
	if e.err != nil {
		msg += ": " + e.err.Error()
	}

	return msg
}

// Unwrap returns the store error.
func (e *PersistenceError) Unwrap() error {
	return e.err
}

// Is matches another PersistenceError with the same code.
func (e *PersistenceError) Is(target error) bool {
	t, ok := target.(*PersistenceError)

	return ok && t.code == e.code
}

// Code returns the failure class.
func (e *PersistenceError) Code() PersistenceCode {
	return e.code
}

// Op returns the failed operation.
func (e *PersistenceError) Op() string {
	return e.op
}

// HTTPCode returns the HTTP status code
func (e *PersistenceError) HTTPCode() int {
	switch e.code {
	case PersistencePermissionDenied:
		return http.StatusForbidden
	case PersistenceNotFound:
		return http.StatusNotFound
	case PersistenceUnavailable:
		return http.StatusServiceUnavailable
	case PersistenceAborted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode returns the business error code
func (e *PersistenceError) ErrorCode() string {
	return string(e.code)
}

// Message returns the user-facing message.
func (e *PersistenceError) Message() string {
	switch e.code {
	case PersistencePermissionDenied:
		return "You do not have permission to change this"
	case PersistenceNotFound:
		return "Not found"
	case PersistenceUnavailable:
		return "The service is unreachable, try again"
	default:
		return "Could not save your changes"
	}
}

// Details returns the store error text, if any.
func (e *PersistenceError) Details() string {
	if e.err == nil {
		return e.op
	}

	return e.err.Error()
}
