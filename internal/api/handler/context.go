package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/supplyhub/supplier-console/internal/api/middleware"
	"github.com/supplyhub/supplier-console/internal/core/domain"
)

// ctxSession extracts the session resolved by the middleware and fails fast
// before any service call:
//   - the session must be present (presence proves the middleware ran).
//   - a session without a user id is structurally valid but unusable for
//     user-scoped endpoints, so it is rejected with 401.
func ctxSession(c echo.Context) (*domain.Session, error) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not signed in")
	}
	if sess.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "session missing user identity")
	}
	return sess, nil
}

// upstream passes err through, first ending the session when the backend
// rejected its bearer token; the browser then lands on the sign-in page.
func upstream(c echo.Context, sessions *middleware.Sessions, err error) error {
	if errors.Is(err, domain.ErrUnauthorized) && middleware.CurrentSession(c) != nil {
		sessions.Terminate(c, "unauthorized")
	}
	return err
}

// bindValid binds the request body into req and validates it, reporting both
// failures as validation errors.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.NewAPIError(domain.KindValidation, http.StatusUnprocessableEntity, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return domain.NewAPIError(domain.KindValidation, http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
