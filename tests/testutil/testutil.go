// Package testutil provides shared utilities for tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/itemhub/itemhub/internal/analytics"
	"github.com/itemhub/itemhub/internal/auth"
	"github.com/itemhub/itemhub/internal/config"
	"github.com/itemhub/itemhub/internal/handlers"
	"github.com/itemhub/itemhub/internal/idgen"
	"github.com/itemhub/itemhub/internal/models"
	"github.com/itemhub/itemhub/internal/repository"
	"github.com/itemhub/itemhub/internal/server"
	"github.com/itemhub/itemhub/internal/services"
	"github.com/itemhub/itemhub/pkg/logger"
)

// Credentials used by the default test user fixture.
const (
	TestUserEmail    = "test@example.com"
	TestUserName     = "testuser"
	TestUserPassword = "password123"
)

// TestServer bundles a running server with the fakes behind it.
type TestServer struct {
	Server  *server.Server
	BaseURL string
	Items   *repository.MemoryItemRepository
	Users   *repository.MemoryUserRepository
	Tokens  *auth.TokenManager
	Counter *analytics.ViewCounter
}

// Config returns a server configuration suitable for tests. The port is 0 so
// the OS assigns a free one.
func Config() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:      "test",
			LogLevel: "error",
		},
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// StartServer boots a fully wired server on in-memory storage and registers
// cleanup with the test. Views are flushed aggressively so tests can observe
// them without long waits.
func StartServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := Config()
	log := logger.New(io.Discard, "error")
	srv := server.New(cfg, log)

	gen, err := idgen.NewSnowflakeGenerator(1)
	require.NoError(t, err)

	itemRepo := repository.NewMemoryItemRepository(gen)
	userRepo := repository.NewMemoryUserRepository()

	counter := analytics.NewViewCounter(analytics.Config{
		FlushInterval: 50 * time.Millisecond,
		BatchSize:     10,
		ChannelBuffer: 1000,
	}, analytics.NewRepositoryFlusher(itemRepo, log))

	tokens, err := auth.NewTokenManager("test-secret-key", "itemhub-test", time.Hour)
	require.NoError(t, err)

	srv.SetItemRepository(itemRepo)
	srv.SetTokenVerifier(tokens)
	srv.SetItemHandler(handlers.NewItemHandler(services.NewItemService(itemRepo, counter)))
	srv.SetAuthHandler(handlers.NewAuthHandler(services.NewAuthService(userRepo, tokens, 4)))

	go func() { _ = srv.Start() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		counter.Stop()
	})

	require.Eventually(t, func() bool {
		return srv.IsRunning() && srv.Addr() != ""
	}, 2*time.Second, 10*time.Millisecond, "server should start")

	return &TestServer{
		Server:  srv,
		BaseURL: "http://" + srv.Addr(),
		Items:   itemRepo,
		Users:   userRepo,
		Tokens:  tokens,
		Counter: counter,
	}
}

// RegisterUser creates a user through the HTTP API and returns it.
func (ts *TestServer) RegisterUser(t *testing.T, email, username, password string) *models.User {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"email":    email,
		"username": username,
		"password": password,
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.BaseURL+"/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	return &user
}

// Login exchanges credentials for an access token through the HTTP API.
func (ts *TestServer) Login(t *testing.T, email, password string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	require.NoError(t, err)

	resp, err := http.Post(ts.BaseURL+"/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token services.Token
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
	require.NotEmpty(t, token.AccessToken)
	return token.AccessToken
}

// SeedUser registers the default test user and returns it with a valid token.
func (ts *TestServer) SeedUser(t *testing.T) (*models.User, string) {
	t.Helper()
	user := ts.RegisterUser(t, TestUserEmail, TestUserName, TestUserPassword)
	return user, ts.Login(t, TestUserEmail, TestUserPassword)
}

// AuthHeader formats a bearer token for the Authorization header.
func AuthHeader(token string) string {
	return "Bearer " + token
}

// SetEnv sets an environment variable for the duration of a test.
func SetEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

// SkipIfShort skips long-running tests when -short flag is used.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping test in short mode")
	}
}

// DatabaseURL returns the integration database DSN, skipping the test when
// none is configured.
func DatabaseURL(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("skipping test: TEST_DATABASE_URL not set")
	}
	return dsn
}
