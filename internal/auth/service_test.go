package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/internal/apiclient"
	"github.com/taskboard/internal/session"
	"github.com/taskboard/internal/validation"
)

func newTestService(t *testing.T, handler http.Handler, opts ...session.Option) (*Service, *session.Manager) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess, err := session.NewManager(srv.URL, opts...)
	require.NoError(t, err)
	cfg := apiclient.DefaultConfig()
	cfg.BaseURL = srv.URL
	client, err := apiclient.New(cfg, sess, nil)
	require.NoError(t, err)
	return NewService(client, nil), sess
}

func TestLogin_CookieSession(t *testing.T) {
	var got Credentials
	svc, sess := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		http.SetCookie(w, &http.Cookie{Name: session.AccessTokenCookie, Value: "cookie-token", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "r1", Path: "/", HttpOnly: true})
		_, _ = w.Write([]byte(`{"message":"Login successful"}`))
	}))

	current, err := svc.Login(context.Background(), Credentials{Email: " ada@example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "secret1", got.Password)
	assert.Equal(t, "cookie-token", current.AccessToken)
	assert.Equal(t, "cookie-token", sess.AccessToken())
}

func TestLogin_BodyTokenIsMirrored(t *testing.T) {
	svc, sess := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accessToken":"body-token"}`))
	}))

	current, err := svc.Login(context.Background(), Credentials{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "body-token", current.AccessToken)
	assert.Equal(t, "body-token", sess.AccessToken())
}

func TestLogin_ValidationHappensBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"missing email", Credentials{Password: "secret1"}},
		{"bad email", Credentials{Email: "ada", Password: "secret1"}},
		{"missing password", Credentials{Email: "ada@example.com"}},
		{"short password", Credentials{Email: "ada@example.com", Password: "123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.creds)
			assert.True(t, errors.Is(err, validation.ErrInvalid), "got %v", err)
		})
	}
	assert.EqualValues(t, 0, calls.Load())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	// Wrong password comes back as 400, not 401, so no refresh is attempted
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid email or password"}`))
	}))

	_, err := svc.Login(context.Background(), Credentials{Email: "ada@example.com", Password: "wrong-pass"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apiclient.ErrApplication))
	assert.Equal(t, "Invalid email or password", apiclient.Message(err, ""))
}

func TestRegister(t *testing.T) {
	var got map[string]any
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"message":"User registered"}`))
	}))

	res, err := svc.Register(context.Background(), Registration{
		Name:            "Ada Lovelace",
		Email:           "ada@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "User registered", res.Message)
	assert.Equal(t, map[string]any{"name": "Ada Lovelace", "email": "ada@example.com", "password": "secret1"}, got)
}

func TestRegister_Unsuccessful(t *testing.T) {
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Email already in use"}`))
	}))

	_, err := svc.Register(context.Background(), Registration{
		Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	var regErr *RegisterError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "Email already in use", regErr.Message)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	svc, _ := newTestService(t, http.NotFoundHandler())

	_, err := svc.Register(context.Background(), Registration{
		Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret2",
	})
	var vErr *validation.Error
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "confirm_password", vErr.Field)
}

func TestLogout(t *testing.T) {
	var navigations []string
	svc, sess := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/logout", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}), session.WithNavigator(func(path string) { navigations = append(navigations, path) }))
	require.NoError(t, sess.Set("token-1"))

	require.NoError(t, svc.Logout(context.Background()))
	assert.Empty(t, sess.AccessToken())
	assert.Equal(t, []string{"/login"}, navigations)
}

func TestLogout_FailureKeepsSession(t *testing.T) {
	var navigations []string
	svc, sess := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), session.WithNavigator(func(path string) { navigations = append(navigations, path) }))
	require.NoError(t, sess.Set("token-1"))

	err := svc.Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, "token-1", sess.AccessToken())
	assert.Empty(t, navigations)
}
