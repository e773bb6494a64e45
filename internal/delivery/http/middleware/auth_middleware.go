package middleware

import (
	"log/slog"

	deliverycontext "eventboard/internal/delivery/context"
	domainerrors "eventboard/internal/domain/errors"
	"eventboard/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware guards routes that need a signed-in user.
type AuthMiddleware struct {
	session usecase.SessionUsecase
	logger  *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(session usecase.SessionUsecase, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{session: session, logger: logger}
}

// RequireSession rejects the request unless the session holds an identity. The
// uid is stored on the echo context and added to the request-scoped logger.
func (m *AuthMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		current := m.session.Current()
		if !current.Authenticated() {
			return domainerrors.ErrUnauthenticated
		}

		uid := current.UID()
		deliverycontext.SetUserID(c, uid)

		ctx := c.Request().Context()
		logger := deliverycontext.GetLoggerOrDefault(ctx, m.logger).With(slog.String("uid", uid))
		c.SetRequest(c.Request().WithContext(deliverycontext.WithLogger(ctx, logger)))

		return next(c)
	}
}
