package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"spotbnb/internal/auth"
	"spotbnb/internal/config"
	"spotbnb/internal/database"
	"spotbnb/internal/events"
	"spotbnb/internal/models"
	"spotbnb/internal/repository"
	"spotbnb/internal/service"
	"spotbnb/internal/validation"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	db     *database.DB
}

type apiOption func(*config.APIConfig)

func newTestAPI(t *testing.T, opts ...apiOption) *testAPI {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "api.db"),
	}, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	apiCfg := config.APIConfig{}
	for _, opt := range opts {
		opt(&apiCfg)
	}
	authCfg := config.AuthConfig{CookieName: "token"}

	v := validation.New()
	bus := events.NewEventBus()
	tokens := auth.NewTokenManager("api-test-secret-0123456789", time.Hour, "spotbnb")
	services := Services{
		Auth: service.NewAuthService(db, repository.NewMemorySessionStore(), tokens, v, bus,
			bcrypt.MinCost, service.LoginLimit{Attempts: 5, Window: time.Minute}, &logger),
		Spots:    service.NewSpotService(db, v, bus, &logger),
		Reviews:  service.NewReviewService(db, v, bus, &logger),
		Bookings: service.NewBookingService(db, v, bus, models.OverlapPartial, &logger),
	}

	srv := NewHTTPServer(apiCfg, authCfg, services, db, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testAPI{t: t, server: ts, db: db}
}

// client returns an http.Client with its own cookie jar, i.e. its own session.
func (a *testAPI) client() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	return &http.Client{Jar: jar}
}

type apiResponse struct {
	status int
	header http.Header
	raw    []byte
}

func (r apiResponse) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.raw, &out), "body: %s", r.raw)
	return out
}

func (a *testAPI) do(c *http.Client, method, path string, body any) apiResponse {
	a.t.Helper()
	return a.doWithHeader(c, method, path, body, nil)
}

func (a *testAPI) doWithHeader(c *http.Client, method, path string, body any, header http.Header) apiResponse {
	a.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return apiResponse{status: resp.StatusCode, header: resp.Header, raw: raw}
}

// signup creates a user and leaves c signed in as them.
func (a *testAPI) signup(c *http.Client, username string) int64 {
	a.t.Helper()
	resp := a.do(c, http.MethodPost, "/api/users", map[string]string{
		"firstName": "First",
		"lastName":  "Last",
		"email":     username + "@example.com",
		"username":  username,
		"password":  "password",
	})
	require.Equal(a.t, http.StatusCreated, resp.status, string(resp.raw))
	user := resp.json(a.t)["user"].(map[string]any)
	return int64(user["id"].(float64))
}

func spotBody() map[string]any {
	return map[string]any{
		"address":     "123 Disney Lane",
		"city":        "San Francisco",
		"state":       "California",
		"country":     "United States of America",
		"lat":         37.7645358,
		"lng":         -122.4730327,
		"name":        "App Academy",
		"description": "Place where web developers are created",
		"price":       123,
	}
}

func (a *testAPI) createSpot(c *http.Client) int64 {
	a.t.Helper()
	resp := a.do(c, http.MethodPost, "/api/spots", spotBody())
	require.Equal(a.t, http.StatusCreated, resp.status, string(resp.raw))
	return int64(resp.json(a.t)["id"].(float64))
}

func jsonDecode(resp *http.Response, dst any) error {
	return json.NewDecoder(resp.Body).Decode(dst)
}
