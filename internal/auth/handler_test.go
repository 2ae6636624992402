package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func TestRegisterEndpoint(t *testing.T) {
	handler := NewHandler(newTestService(newFakeCredentialStore()))

	recorder := postJSON(t, handler.Register,
		`{"name":"Ana","email":"a@x.com","password":"Weak1","role_id":"role-waiter"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	body := decodeBody(t, recorder)
	assert.Contains(t, body["error"], "invalid password")

	recorder = postJSON(t, handler.Register,
		`{"name":"Ana","email":"a@x.com","password":"Strong1!","role_id":"role-waiter"}`)
	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.NotEmpty(t, decodeBody(t, recorder)["token"])

	recorder = postJSON(t, handler.Register,
		`{"name":"Ana","email":"a@x.com","password":"Strong1!","role_id":"role-waiter"}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestRegisterEndpointRejectsBadInput(t *testing.T) {
	handler := NewHandler(newTestService(newFakeCredentialStore()))

	cases := []struct {
		name string
		body string
	}{
		{"missing fields", `{"email":"a@x.com"}`},
		{"bad email", `{"name":"Ana","email":"not-an-email","password":"Strong1!","role_id":"r"}`},
		{"unknown field", `{"name":"Ana","email":"a@x.com","password":"Strong1!","role_id":"r","extra":1}`},
		{"not json", `hello`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := postJSON(t, handler.Register, tc.body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestLoginEndpointLockout(t *testing.T) {
	store := newFakeCredentialStore()
	store.seed(t, "a@x.com", "Strong1!", "role-waiter")
	handler := NewHandler(newTestService(store))

	for i := 0; i < 5; i++ {
		recorder := postJSON(t, handler.Login, `{"email":"a@x.com","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "invalid credentials", decodeBody(t, recorder)["error"])
	}

	// Locked out now, even with the correct password.
	recorder := postJSON(t, handler.Login, `{"email":"a@x.com","password":"Strong1!"}`)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Contains(t, decodeBody(t, recorder)["error"], "blocked")
	assert.NotEmpty(t, recorder.Header().Get("Retry-After"))
}

func TestLoginEndpointSuccess(t *testing.T) {
	store := newFakeCredentialStore()
	store.seed(t, "a@x.com", "Strong1!", "role-waiter")
	handler := NewHandler(newTestService(store))

	recorder := postJSON(t, handler.Login, `{"email":"a@x.com","password":"Strong1!"}`)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotEmpty(t, decodeBody(t, recorder)["token"])
}

func TestMiddlewareRoundTrip(t *testing.T) {
	store := newFakeCredentialStore()
	store.seed(t, "a@x.com", "Strong1!", "role-waiter")
	service := newTestService(store)

	token, err := service.Login(t.Context(), "a@x.com", "Strong1!")
	require.NoError(t, err)

	var got Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	Middleware("test-secret", next).ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "user-a@x.com", got.UserID)
	assert.Equal(t, "role-waiter", got.RoleID)
}

func TestMiddlewareRejectsBadTokens(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	})
	wrapped := Middleware("test-secret", next)

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			recorder := httptest.NewRecorder()
			wrapped.ServeHTTP(recorder, req)
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		})
	}
}

func TestLoginThrottle(t *testing.T) {
	throttle := NewLoginThrottle(3, time.Minute)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		allowed, _ := throttle.allow("10.0.0.1", now)
		assert.True(t, allowed)
	}

	allowed, retryAfter := throttle.allow("10.0.0.1", now)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))

	// Another address is unaffected.
	allowed, _ = throttle.allow("10.0.0.2", now)
	assert.True(t, allowed)

	// The window rolls over.
	allowed, _ = throttle.allow("10.0.0.1", now.Add(2*time.Minute))
	assert.True(t, allowed)
}
