package handler_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

// ---- POST /auth/register ---------------------------------------------------

func TestRegister_201(t *testing.T) {
	id := uuid.New()
	var gotName, gotEmail, gotPassword string
	svc := &mockAuthServicer{
		register: func(_ context.Context, username, email, password string) (domain.User, error) {
			gotName, gotEmail, gotPassword = username, email, password
			return domain.User{ID: id, Username: username, Email: email}, nil
		},
	}

	rec := do(newHTTPHandler(services{auth: svc}), http.MethodPost, "/auth/register", jsonBody(t, map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "secret123",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Registration successful", body["message"])
	assert.Equal(t, id.String(), body["userId"])
	assert.Equal(t, "alice", gotName)
	assert.Equal(t, "alice@example.com", gotEmail)
	assert.Equal(t, "secret123", gotPassword)
}

func TestRegister_400_Conflict(t *testing.T) {
	svc := &mockAuthServicer{
		register: func(context.Context, string, string, string) (domain.User, error) {
			return domain.User{}, domain.Errorf(domain.ErrConflict, "Username or email already exists")
		},
	}

	rec := do(newHTTPHandler(services{auth: svc}), http.MethodPost, "/auth/register", jsonBody(t, map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "secret123",
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Username or email already exists", body["message"])
}

func TestRegister_400_MalformedJSON(t *testing.T) {
	rec := do(newHTTPHandler(services{auth: &mockAuthServicer{}}), http.MethodPost, "/auth/register", strings.NewReader("{not json"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request", decode(t, rec)["message"])
}

func TestRegister_500_HidesInternalError(t *testing.T) {
	svc := &mockAuthServicer{
		register: func(context.Context, string, string, string) (domain.User, error) {
			return domain.User{}, errors.New("connection refused to 10.0.0.5")
		},
	}

	rec := do(newHTTPHandler(services{auth: svc}), http.MethodPost, "/auth/register", jsonBody(t, map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "secret123",
	}))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Registration failed", decode(t, rec)["message"])
}

// ---- POST /auth/login ------------------------------------------------------

func TestLogin_200(t *testing.T) {
	user := domain.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	svc := &mockAuthServicer{
		login: func(_ context.Context, email, password string) (service.LoginResult, error) {
			return service.LoginResult{Token: "tok", User: user}, nil
		},
	}

	rec := do(newHTTPHandler(services{auth: svc}), http.MethodPost, "/auth/login", jsonBody(t, map[string]any{
		"email": "alice@example.com", "password": "secret123",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "tok", body["token"])
	u := body["user"].(map[string]any)
	assert.Equal(t, user.ID.String(), u["id"])
	assert.Equal(t, "alice", u["username"])
	assert.NotContains(t, u, "created_at")
}

func TestLogin_401_InvalidCredentials(t *testing.T) {
	svc := &mockAuthServicer{
		login: func(context.Context, string, string) (service.LoginResult, error) {
			return service.LoginResult{}, service.ErrInvalidCredentials
		},
	}

	rec := do(newHTTPHandler(services{auth: svc}), http.MethodPost, "/auth/login", jsonBody(t, map[string]any{
		"email": "alice@example.com", "password": "wrong",
	}))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec)["message"])
}

// ---- GET /auth/me ----------------------------------------------------------

func TestMe_200(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &mockAuthServicer{
		profile: func(_ context.Context, userID uuid.UUID) (domain.User, error) {
			return domain.User{ID: userID, Username: "alice", Email: "alice@example.com", CreatedAt: created}, nil
		},
	}

	rec := do(newHTTPHandler(services{auth: svc}), http.MethodGet, "/auth/me", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	u := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, testCaller.UserID.String(), u["id"])
	assert.Equal(t, "2025-03-01T12:00:00Z", u["created_at"])
}

func TestMe_404_UserGone(t *testing.T) {
	svc := &mockAuthServicer{
		profile: func(context.Context, uuid.UUID) (domain.User, error) {
			return domain.User{}, domain.Errorf(domain.ErrNotFound, "User not found")
		},
	}

	rec := do(newHTTPHandler(services{auth: svc}), http.MethodGet, "/auth/me", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decode(t, rec)["message"])
}
