package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"gorm.io/gorm"

	"github.com/loxigl/Rent-Pro/internal/app"
	"github.com/loxigl/Rent-Pro/internal/config"
)

// TestServer runs the full HTTP stack against the databases named by
// DATABASE_URL, REDIS_ADDR and MINIO_ENDPOINT.
type TestServer struct {
	Server    *httptest.Server
	DB        *gorm.DB
	Container *app.Container
}

// NewTestServer boots the application for integration tests. Tests are
// skipped when DATABASE_URL is not set.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	container, err := app.BuildContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to build application: %v", err)
	}

	router := app.SetupRouter(container)
	server := httptest.NewServer(router)

	return &TestServer{
		Server:    server,
		DB:        container.DB,
		Container: container,
	}
}

func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Container.Close()
}

// ClearTables truncates everything between tests.
func (ts *TestServer) ClearTables() error {
	return ts.DB.Exec(`TRUNCATE TABLE apartments, apartment_photos, photo_variants, bookings, users, refresh_tokens, event_logs, system_settings RESTART IDENTITY CASCADE`).Error
}

// SendRequest performs a JSON request against the test server.
func (ts *TestServer) SendRequest(t *testing.T, method, path, token string, body interface{}) (*http.Response, string) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return res, string(resBody)
}
