package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestSetupMiddleware_TrailingSlash(t *testing.T) {
	e := setupEcho()
	setupMiddleware(e)

	g := e.Group("/exposurelog")
	for _, path := range []string{"/messages", "/exposures", "/instruments", "/configuration"} {
		g.GET(path, func(c echo.Context) error {
			return c.String(http.StatusOK, c.Path())
		})
	}

	for _, target := range []string{
		"/exposurelog/messages/",
		"/exposurelog/exposures/?instrument=LSSTCam",
		"/exposurelog/instruments/",
		"/exposurelog/configuration/",
		"/exposurelog/messages",
	} {
		t.Run(target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		})
	}
}
