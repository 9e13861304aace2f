package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itemhub/itemhub/internal/models"
	"github.com/itemhub/itemhub/internal/services"
	"github.com/itemhub/itemhub/tests/testutil"
)

func getWithAuth(t *testing.T, url, token string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", testutil.AuthHeader(token))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestE2E_Register(t *testing.T) {
	ts := testutil.StartServer(t)

	t.Run("register returns the user without credentials", func(t *testing.T) {
		resp := postJSON(t, ts.BaseURL+"/auth/register",
			`{"email":"new@example.com","username":"newuser","password":"password123"}`, nil)
		defer resp.Body.Close()

		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var user models.User
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
		assert.NotZero(t, user.ID)
		assert.Equal(t, "new@example.com", user.Email)
		assert.True(t, user.IsActive)
	})

	t.Run("duplicate email is a 409", func(t *testing.T) {
		resp := postJSON(t, ts.BaseURL+"/auth/register",
			`{"email":"new@example.com","username":"another","password":"password123"}`, nil)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("short password is a 422", func(t *testing.T) {
		resp := postJSON(t, ts.BaseURL+"/auth/register",
			`{"email":"short@example.com","username":"shorty","password":"tiny"}`, nil)
		defer resp.Body.Close()

		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var verr validationResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&verr))
		require.NotEmpty(t, verr.Detail)
		assert.Equal(t, []string{"body", "password"}, verr.Detail[0].Loc)
	})

	t.Run("invalid email is a 422", func(t *testing.T) {
		resp := postJSON(t, ts.BaseURL+"/auth/register",
			`{"email":"not-an-email","username":"someone","password":"password123"}`, nil)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})
}

func TestE2E_Login(t *testing.T) {
	ts := testutil.StartServer(t)
	ts.RegisterUser(t, testutil.TestUserEmail, testutil.TestUserName, testutil.TestUserPassword)

	t.Run("valid credentials return a bearer token", func(t *testing.T) {
		resp := postJSON(t, ts.BaseURL+"/auth/login",
			`{"email":"test@example.com","password":"password123"}`, nil)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var token services.Token
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
		assert.NotEmpty(t, token.AccessToken)
		assert.Equal(t, "bearer", token.TokenType)
	})

	t.Run("wrong password is a 401", func(t *testing.T) {
		resp := postJSON(t, ts.BaseURL+"/auth/login",
			`{"email":"test@example.com","password":"wrong-password"}`, nil)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown email is also a 401", func(t *testing.T) {
		resp := postJSON(t, ts.BaseURL+"/auth/login",
			`{"email":"ghost@example.com","password":"password123"}`, nil)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestE2E_Me(t *testing.T) {
	ts := testutil.StartServer(t)
	user, token := ts.SeedUser(t)

	t.Run("valid token returns the current user", func(t *testing.T) {
		resp := getWithAuth(t, ts.BaseURL+"/auth/me", token)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var me models.User
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
		assert.Equal(t, user.ID, me.ID)
		assert.Equal(t, user.Email, me.Email)
	})

	t.Run("missing token is a 401", func(t *testing.T) {
		resp := getWithAuth(t, ts.BaseURL+"/auth/me", "")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("garbage token is a 401", func(t *testing.T) {
		resp := getWithAuth(t, ts.BaseURL+"/auth/me", "not.a.token")
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token is a 401", func(t *testing.T) {
		expired, err := ts.Tokens.IssueWithTTL(user.ID, -time.Minute)
		require.NoError(t, err)

		resp := getWithAuth(t, ts.BaseURL+"/auth/me", expired)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "TOKEN_EXPIRED", body.Code)
	})
}
