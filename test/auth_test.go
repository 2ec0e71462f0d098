package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"testing"

	"github.com/nowestinterior/backend/internal/admins"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// newSessionClient returns a fresh client with its own cookie jar, so
// tests do not leak sessions into each other
func newSessionClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func doLogin(ctx context.Context, t *testing.T, client *http.Client, username, password string) *http.Response {
	t.Helper()

	loginReqJson, err := json.Marshal(loginRequest{
		Username: username,
		Password: password,
	})
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/admin/login", serverEndpoint), bytes.NewBuffer(loginReqJson))
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func (s *IntegrationTestSuite) TestLogin() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cases := map[string]struct {
		loginReq           loginRequest
		expectedStatusCode int
		assertFunc         func(t *testing.T, resp *http.Response)
	}{
		"good creds": {
			loginReq: loginRequest{
				Username: testAdminUsername,
				Password: testAdminPassword,
			},
			expectedStatusCode: http.StatusOK,
			assertFunc: func(t *testing.T, resp *http.Response) {
				respBytes, err := io.ReadAll(resp.Body)
				require.NoError(t, err)

				var admin admins.Admin
				require.NoError(t, json.Unmarshal(respBytes, &admin))
				assert.Equal(t, testAdminUsername, admin.Username)
				assert.NotContains(t, string(respBytes), "password")

				var sessionCookie *http.Cookie
				for _, cookie := range resp.Cookies() {
					if cookie.Name == "session_id" {
						sessionCookie = cookie
					}
				}
				require.NotNil(t, sessionCookie)
				assert.NotEmpty(t, sessionCookie.Value)
				assert.True(t, sessionCookie.HttpOnly)
			},
		},
		"bad password": {
			loginReq: loginRequest{
				Username: testAdminUsername,
				Password: "bad-password",
			},
			expectedStatusCode: http.StatusUnauthorized,
			assertFunc: func(t *testing.T, resp *http.Response) {
				respBytes, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, "error, wrong credentials", strings.TrimSpace(string(respBytes)))
				assert.Empty(t, resp.Cookies())
			},
		},
		"bad username": {
			loginReq: loginRequest{
				Username: "bad-username",
				Password: testAdminPassword,
			},
			expectedStatusCode: http.StatusUnauthorized,
			assertFunc: func(t *testing.T, resp *http.Response) {
				respBytes, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, "error, wrong credentials", strings.TrimSpace(string(respBytes)))
				assert.Empty(t, resp.Cookies())
			},
		},
		"empty creds": {
			loginReq:           loginRequest{},
			expectedStatusCode: http.StatusBadRequest,
			assertFunc:         func(t *testing.T, resp *http.Response) {},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			client := newSessionClient(t)
			resp := doLogin(ctx, t, client, tc.loginReq.Username, tc.loginReq.Password)
			defer resp.Body.Close()

			require.Equal(t, tc.expectedStatusCode, resp.StatusCode)
			tc.assertFunc(t, resp)
		})
	}
}

func (s *IntegrationTestSuite) TestSessionFlow() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newSessionClient(t)

	// login - the jar picks up the session cookie
	loginResp := doLogin(ctx, t, client, testAdminUsername, testAdminPassword)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	loginResp.Body.Close()

	// whoami
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/admin/me", serverEndpoint), nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	var me admins.Admin
	require.NoError(t, json.Unmarshal(respBytes, &me))
	assert.Equal(t, testAdminUsername, me.Username)

	// logout
	req, err = http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/admin/logout", serverEndpoint), nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBytes, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Successfully logged out"}`, string(respBytes))

	// session is gone now
	req, err = http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/admin/me", serverEndpoint), nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// logout again is still a success
	req, err = http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/admin/logout", serverEndpoint), nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestMeWithoutSession() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newSessionClient(t)
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/admin/me", serverEndpoint), nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestCreateAdmin() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	createReqJson := []byte(`{"username":"second-admin","password":"s3cr3t-pass"}`)

	// without a session the endpoint is locked
	client := newSessionClient(t)
	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/admin/create-admin", serverEndpoint), bytes.NewBuffer(createReqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// login, then create
	loginResp := doLogin(ctx, t, client, testAdminUsername, testAdminPassword)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	loginResp.Body.Close()

	req, err = http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/admin/create-admin", serverEndpoint), bytes.NewBuffer(createReqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	var created admins.Admin
	require.NoError(t, json.Unmarshal(respBytes, &created))
	assert.Equal(t, "second-admin", created.Username)

	// the password landed in the db only as a bcrypt hash
	var passwordHash string
	require.NoError(t, s.DB.QueryRow(
		`SELECT password_hash FROM admins WHERE username = $1`, "second-admin",
	).Scan(&passwordHash))
	assert.True(t, strings.HasPrefix(passwordHash, "$2a$"))
	assert.NotEqual(t, "s3cr3t-pass", passwordHash)

	// duplicate username
	req, err = http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/admin/create-admin", serverEndpoint), bytes.NewBuffer(createReqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	respBytes, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"username already taken"}`, string(respBytes))

	// the new admin can log in right away
	newAdminClient := newSessionClient(t)
	newAdminLoginResp := doLogin(ctx, t, newAdminClient, "second-admin", "s3cr3t-pass")
	defer newAdminLoginResp.Body.Close()
	assert.Equal(t, http.StatusOK, newAdminLoginResp.StatusCode)
}

func (s *IntegrationTestSuite) TestHealth() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/health", serverEndpoint), nil)
	require.NoError(t, err)
	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(respBytes), `"status":"OK"`)
}
