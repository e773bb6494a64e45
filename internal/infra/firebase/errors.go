package firebase

import (
	"context"
	"strings"
	"time"

	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// authError converts an Identity Toolkit failure. The REST API reports the
// reason as the message, optionally followed by " : <detail>".
func authError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return domainerrors.NewAuthError("", "", err)
	}

	code, detail, _ := strings.Cut(apiErr.Message, ":")

	return domainerrors.NewAuthError(strings.TrimSpace(code), strings.TrimSpace(detail), err)
}

// persistenceError converts a Firestore failure for operation op.
func persistenceError(op string, err error) error {
	if err == nil {
		return nil
	}

	return domainerrors.NewPersistenceError(persistenceCode(err), op, err)
}

func persistenceCode(err error) domainerrors.PersistenceCode {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return domainerrors.PersistencePermissionDenied
	case codes.NotFound:
		return domainerrors.PersistenceNotFound
	case codes.Unavailable, codes.DeadlineExceeded:
		return domainerrors.PersistenceUnavailable
	case codes.Aborted, codes.FailedPrecondition:
		return domainerrors.PersistenceAborted
	default:
		return domainerrors.PersistenceInternal
	}
}

// isStreamClosed reports whether a listen error only means the stream was stopped.
func isStreamClosed(err error) bool {
	return errors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled
}

// tokenTimes reads the issue and expiry times of an ID token without verifying it.
// Signature checks are left to the backend.
func tokenTimes(idToken string) (issuedAt, expiresAt time.Time, err error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(err, "failed to parse ID token")
	}
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return issuedAt, expiresAt, nil
}
