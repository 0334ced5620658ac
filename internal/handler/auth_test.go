package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/openkanban/kanband/internal/config"
	"github.com/openkanban/kanband/internal/domain"
	internal_errors "github.com/openkanban/kanband/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupHandler(t *testing.T) {
	h := &Handler{}
	router := chi.NewRouter()
	router.Post("/v1/signup", h.Signup)
	requestBody := []byte(`{"username": "alice", "email": "alice@example.com", "password": "secret123"}`)

	t.Run("successful request", func(t *testing.T) {
		h.auth = &MockAuthService{
			MockSignup: func(username, email, password string) error {
				assert.Equal(t, "alice", username)
				return nil
			},
		}
		rr := serve(router, httptest.NewRequest(http.MethodPost, "/v1/signup", bytes.NewBuffer(requestBody)))
		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("invalid request body", func(t *testing.T) {
		rr := serve(router, httptest.NewRequest(http.MethodPost, "/v1/signup", bytes.NewBuffer([]byte(`{invalid json::}`))))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rr := serve(router, httptest.NewRequest(http.MethodPost, "/v1/signup", bytes.NewBuffer([]byte(`{"username": "alice"}`))))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("service error", func(t *testing.T) {
		h.auth = &MockAuthService{
			MockSignup: func(username, email, password string) error {
				return internal_errors.BadRequest("User exists")
			},
		}
		rr := serve(router, httptest.NewRequest(http.MethodPost, "/v1/signup", bytes.NewBuffer(requestBody)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	cfg := &config.Config{}
	cfg.Public.JwtTTLMinutes = 60
	h := &Handler{cfg: cfg}
	router := chi.NewRouter()
	router.Post("/v1/login", h.Login)
	requestBody := []byte(`{"username": "alice", "password": "secret123"}`)

	t.Run("sets access token cookie", func(t *testing.T) {
		h.auth = &MockAuthService{
			MockLogin: func(username, password string) (string, error) {
				return "jwt-token", nil
			},
		}
		rr := serve(router, httptest.NewRequest(http.MethodPost, "/v1/login", bytes.NewBuffer(requestBody)))
		require.Equal(t, http.StatusOK, rr.Code)

		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "accessToken", cookies[0].Name)
		assert.Equal(t, "jwt-token", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, 3600, cookies[0].MaxAge)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		h.auth = &MockAuthService{
			MockLogin: func(username, password string) (string, error) {
				return "", &internal_errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}
			},
		}
		rr := serve(router, httptest.NewRequest(http.MethodPost, "/v1/login", bytes.NewBuffer(requestBody)))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, rr.Result().Cookies())
	})
}

func TestLogoutHandler(t *testing.T) {
	h := &Handler{}
	rr := httptest.NewRecorder()
	h.Logout(rr, httptest.NewRequest(http.MethodPost, "/v1/logout", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "accessToken", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestVerifyOtpHandler(t *testing.T) {
	h := &Handler{}
	router := chi.NewRouter()
	router.Post("/v1/verify-otp", h.VerifyOtp)

	t.Run("successful verification", func(t *testing.T) {
		h.auth = &MockAuthService{
			MockVerifyOtp: func(username, otp string) error {
				assert.Equal(t, "123456", otp)
				return nil
			},
		}
		body := []byte(`{"username": "alice", "otp": "123456"}`)
		rr := serve(router, httptest.NewRequest(http.MethodPost, "/v1/verify-otp", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("wrong code", func(t *testing.T) {
		h.auth = &MockAuthService{
			MockVerifyOtp: func(username, otp string) error {
				return internal_errors.BadRequest("Invalid OTP")
			},
		}
		body := []byte(`{"username": "alice", "otp": "000000"}`)
		rr := serve(router, httptest.NewRequest(http.MethodPost, "/v1/verify-otp", bytes.NewBuffer(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSearchUsersHandler(t *testing.T) {
	h := &Handler{}
	router := chi.NewRouter()
	router.Get("/v1/users/search", h.SearchUsers)
	actor := &domain.User{Id: 1, Username: "alice"}

	t.Run("returns matches", func(t *testing.T) {
		h.auth = &MockAuthService{
			MockSearchUsers: func(query string, requester domain.UserId) ([]domain.User, error) {
				assert.Equal(t, "bo", query)
				assert.Equal(t, actor.Id, requester)
				return []domain.User{{Username: "bob"}}, nil
			},
		}
		req := withUser(httptest.NewRequest(http.MethodGet, "/v1/users/search?q=bo", nil), actor)
		rr := serve(router, req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[{"username":"bob"}]`, rr.Body.String())
	})

	t.Run("requires auth", func(t *testing.T) {
		rr := serve(router, httptest.NewRequest(http.MethodGet, "/v1/users/search?q=bo", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("service error", func(t *testing.T) {
		h.auth = &MockAuthService{
			MockSearchUsers: func(query string, requester domain.UserId) ([]domain.User, error) {
				return nil, errors.New("mock search error")
			},
		}
		req := withUser(httptest.NewRequest(http.MethodGet, "/v1/users/search?q=bo", nil), actor)
		rr := serve(router, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
