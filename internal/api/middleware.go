package api

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kb-dashboard/backend/internal/kbclient"
	"github.com/labstack/echo/v4"
)

// CustomValidator adapts validator/v10 to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator for request bodies.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// bindAndValidate binds the request body into req and validates it.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := c.Validate(req); err != nil {
		return NewValidationError(err)
	}
	return nil
}

// ForwardAuth copies the caller's bearer token, from the Authorization header
// or the named cookie, onto the request context so backend calls made on the
// caller's behalf carry it. Requests without a token pass through unchanged.
func ForwardAuth(cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" && cookieName != "" {
				if cookie, err := c.Cookie(cookieName); err == nil {
					token = cookie.Value
				}
			}
			if token != "" {
				req := c.Request()
				c.SetRequest(req.WithContext(kbclient.WithToken(req.Context(), token)))
			}
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
