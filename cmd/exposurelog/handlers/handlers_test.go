package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/models"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/registry"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/repository"
	"github.com/lsst-sqre/exposurelog/cmd/exposurelog/service"
	"github.com/lsst-sqre/exposurelog/common/db"
	"github.com/lsst-sqre/exposurelog/common/logger"
)

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

func setupTestServer(t *testing.T, health HealthChecker) *echo.Echo {
	t.Helper()
	ctx := context.Background()
	log := logger.Discard()

	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "messages.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	store := repository.NewSQLiteStore(sqlDB)
	require.NoError(t, store.CreateSchema(ctx))

	reg, err := registry.LoadYAML(ctx, filepath.Join("..", "registry", "testdata", "registry.yaml"))
	require.NoError(t, err)
	resolver := registry.NewResolver([]registry.Registry{reg}, log)
	t.Cleanup(func() { resolver.Close() })

	now := time.Date(2019, 3, 22, 20, 0, 0, 0, time.UTC)
	clock := models.ClockFunc(func() time.Time {
		now = now.Add(time.Second)
		return now
	})

	messages := NewMessageHandler(service.NewMessageService(store, resolver, clock, "test", nil, log), log)
	exposures := NewExposureHandler(service.NewExposureService(resolver, log), log)
	system := NewSystemHandler(service.NewConfigurationService("test", []string{reg.URI()}), health, "exposurelog", log)

	e := echo.New()
	g := e.Group("/exposurelog")
	g.POST("/messages", messages.AddMessage)
	g.GET("/messages", messages.FindMessages)
	g.POST("/messages/delete", messages.DeleteMessages)
	g.GET("/messages/:id", messages.GetMessage)
	g.PATCH("/messages/:id", messages.EditMessage)
	g.DELETE("/messages/:id", messages.DeleteMessage)
	g.GET("/exposures", exposures.FindExposures)
	g.GET("/instruments", exposures.Instruments)
	g.GET("/configuration", system.GetConfiguration)
	g.GET("/health", system.Health)
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func addMessage(t *testing.T, e *echo.Echo, obsID string) models.Message {
	t.Helper()
	body := `{"obs_id":"` + obsID + `","instrument":"LSSTCam","message_text":"hello",` +
		`"tags":["ok-tag"],"user_id":"alice","user_agent":"go-test","is_human":true,"is_new":false}`
	rec := doRequest(e, http.MethodPost, "/exposurelog/messages", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[models.Message](t, rec)
}

func TestMessageRoutes_Lifecycle(t *testing.T) {
	e := setupTestServer(t, healthFunc(func(context.Context) error { return nil }))

	added := addMessage(t, e, "MC_C_20190322_000002")
	assert.Equal(t, 20190322, added.DayObs)
	assert.True(t, added.IsValid)

	rec := doRequest(e, http.MethodPatch, "/exposurelog/messages/"+added.ID.String(), `{"message_text":"edited"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[models.Message](t, rec)
	assert.Equal(t, "edited", edited.MessageText)
	require.NotNil(t, edited.ParentID)
	assert.Equal(t, added.ID, *edited.ParentID)

	rec = doRequest(e, http.MethodGet, "/exposurelog/messages/"+added.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[models.Message](t, rec).IsValid)

	rec = doRequest(e, http.MethodGet, "/exposurelog/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]models.Message](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, edited.ID, found[0].ID)

	rec = doRequest(e, http.MethodPost, "/exposurelog/messages/delete",
		`{"ids":["`+edited.ID.String()+`","`+uuid.NewString()+`"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]models.Message](t, rec), 1)

	rec = doRequest(e, http.MethodGet, "/exposurelog/messages?is_valid=false&order_by=date_added", "")
	require.Equal(t, http.StatusOK, rec.Code)
	invalid := decode[[]models.Message](t, rec)
	require.Len(t, invalid, 2)
	assert.Equal(t, added.ID, invalid[0].ID)
}

func TestMessageRoutes_DeleteOne(t *testing.T) {
	e := setupTestServer(t, healthFunc(func(context.Context) error { return nil }))
	added := addMessage(t, e, "MC_C_20190322_000003")

	rec := doRequest(e, http.MethodDelete, "/exposurelog/messages/"+added.ID.String(), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(e, http.MethodDelete, "/exposurelog/messages/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessageRoutes_FindFilters(t *testing.T) {
	e := setupTestServer(t, healthFunc(func(context.Context) error { return nil }))
	addMessage(t, e, "MC_C_20190322_000002")
	addMessage(t, e, "MC_C_20190322_000003")
	addMessage(t, e, "MC_C_20190323_000001")

	tests := []struct {
		query string
		count int
	}{
		{query: "min_day_obs=20190323", count: 1},
		{query: "max_day_obs=20190323", count: 2},
		{query: "instruments=LSSTCam&instruments=LATISS", count: 3},
		{query: "obs_id=20190322", count: 2},
		{query: "tags=ok-tag&tags=other", count: 3},
		{query: "tags=other", count: 0},
		{query: "exposure_flags=none", count: 3},
		{query: "min_date_added=2019-03-22T20:00:02Z", count: 2},
		{query: "has_parent_id=true", count: 0},
		{query: "limit=2", count: 2},
		{query: "limit=2&offset=2", count: 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := doRequest(e, http.MethodGet, "/exposurelog/messages?"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Len(t, decode[[]models.Message](t, rec), tt.count)
		})
	}
}

func TestMessageRoutes_Errors(t *testing.T) {
	e := setupTestServer(t, healthFunc(func(context.Context) error { return nil }))

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		code   string
	}{
		{
			name:   "unknown exposure",
			method: http.MethodPost,
			target: "/exposurelog/messages",
			body:   `{"obs_id":"MC_C_20190322_000099","instrument":"LSSTCam","message_text":"x","user_id":"alice","user_agent":"go-test","is_human":true,"is_new":false}`,
			status: http.StatusNotFound,
			code:   CodeNotFound,
		},
		{
			name:   "bad tag",
			method: http.MethodPost,
			target: "/exposurelog/messages",
			body:   `{"obs_id":"MC_C_20190322_000002","instrument":"LSSTCam","message_text":"x","tags":["not valid"],"user_id":"alice","user_agent":"go-test","is_human":true,"is_new":false}`,
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
		{
			name:   "bad exposure flag",
			method: http.MethodPost,
			target: "/exposurelog/messages",
			body:   `{"obs_id":"MC_C_20190322_000002","instrument":"LSSTCam","message_text":"x","exposure_flag":"bogus","user_id":"alice","user_agent":"go-test","is_human":true,"is_new":false}`,
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
		{
			name:   "missing is_new",
			method: http.MethodPost,
			target: "/exposurelog/messages",
			body:   `{"obs_id":"MC_C_20190322_000002","instrument":"LSSTCam","message_text":"x","user_id":"alice","user_agent":"go-test","is_human":true}`,
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
		{
			name:   "missing user_id",
			method: http.MethodPost,
			target: "/exposurelog/messages",
			body:   `{"obs_id":"MC_C_20190322_000002","instrument":"LSSTCam","message_text":"x","user_agent":"go-test","is_human":true,"is_new":false}`,
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
		{
			name:   "missing message",
			method: http.MethodGet,
			target: "/exposurelog/messages/" + uuid.NewString(),
			status: http.StatusNotFound,
			code:   CodeNotFound,
		},
		{
			name:   "malformed id",
			method: http.MethodGet,
			target: "/exposurelog/messages/42",
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
		{
			name:   "edit missing message",
			method: http.MethodPatch,
			target: "/exposurelog/messages/" + uuid.NewString(),
			body:   `{"message_text":"x"}`,
			status: http.StatusNotFound,
			code:   CodeNotFound,
		},
		{
			name:   "bad order_by",
			method: http.MethodGet,
			target: "/exposurelog/messages?order_by=tags",
			status: http.StatusBadRequest,
			code:   CodeValidation,
		},
		{
			name:   "bad exposure_flags value",
			method: http.MethodGet,
			target: "/exposurelog/messages?exposure_flags=bogus",
			status: http.StatusBadRequest,
			code:   CodeValidation,
		},
		{
			name:   "bad int filter",
			method: http.MethodGet,
			target: "/exposurelog/messages?min_day_obs=yesterday",
			status: http.StatusBadRequest,
			code:   CodeBadRequest,
		},
		{
			name:   "bad limit",
			method: http.MethodGet,
			target: "/exposurelog/messages?limit=0",
			status: http.StatusBadRequest,
			code:   CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(e, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestExposureRoutes(t *testing.T) {
	e := setupTestServer(t, healthFunc(func(context.Context) error { return nil }))

	rec := doRequest(e, http.MethodGet, "/exposurelog/exposures?instrument=LSSTCam&observation_types=bias", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	exposures := decode[[]models.Exposure](t, rec)
	require.Len(t, exposures, 1)
	assert.Equal(t, "MC_C_20190322_000003", exposures[0].ObsID)

	rec = doRequest(e, http.MethodGet, "/exposurelog/exposures?instrument=LSSTCam&registry=2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(e, http.MethodGet, "/exposurelog/exposures?instrument=LSSTCam&registry=4", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, http.MethodGet, "/exposurelog/exposures", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(e, http.MethodGet, "/exposurelog/exposures?instrument=HSC", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(e, http.MethodGet, "/exposurelog/instruments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string][]string{
		"butler_instruments_1": {"LATISS", "LSSTCam"},
		"butler_instruments_2": {},
		"butler_instruments_3": {},
	}, decode[map[string][]string](t, rec))
}

func TestSystemRoutes(t *testing.T) {
	healthy := true
	e := setupTestServer(t, healthFunc(func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("database unhealthy")
	}))

	rec := doRequest(e, http.MethodGet, "/exposurelog/configuration", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[service.Configuration](t, rec)
	assert.Equal(t, "test", cfg.SiteID)
	assert.NotEmpty(t, cfg.ButlerURI1)
	assert.Empty(t, cfg.ButlerURI2)

	rec = doRequest(e, http.MethodGet, "/exposurelog/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = doRequest(e, http.MethodGet, "/exposurelog/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
