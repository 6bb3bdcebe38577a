package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kb-dashboard/backend/internal/kbclient"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestForwardAuth(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		cookie    string
		wantToken string
		wantOK    bool
	}{
		{"bearer header", "Bearer abc.def", "", "abc.def", true},
		{"lowercase scheme", "bearer xyz", "", "xyz", true},
		{"cookie fallback", "", "from-cookie", "from-cookie", true},
		{"header wins over cookie", "Bearer hdr", "ck", "hdr", true},
		{"basic auth ignored", "Basic dXNlcjpwYXNz", "", "", false},
		{"none", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			c := e.NewContext(req, httptest.NewRecorder())

			var gotToken string
			var gotOK bool
			h := ForwardAuth("token")(func(c echo.Context) error {
				gotToken, gotOK = kbclient.TokenFromContext(c.Request().Context())
				return nil
			})

			assert.NoError(t, h(c))
			assert.Equal(t, tt.wantOK, gotOK)
			assert.Equal(t, tt.wantToken, gotToken)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		debug      bool
		wantStatus int
		wantCode   string
		wantDetail string
	}{
		{"api error", NewNotFoundError("graph view", "x"), false, http.StatusNotFound, "NOT_FOUND", ""},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), false, http.StatusMethodNotAllowed, "HTTP_ERROR", ""},
		{"unknown hidden", assert.AnError, false, http.StatusInternalServerError, "UNKNOWN_ERROR", ""},
		{"unknown debug", assert.AnError, true, http.StatusInternalServerError, "UNKNOWN_ERROR", assert.AnError.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewErrorHandler(tt.debug)(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var apiErr APIError
			decode(t, rec, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantDetail, apiErr.Details)
		})
	}
}
