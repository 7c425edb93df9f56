package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type registerResponse struct {
	envelope
	UserID uuid.UUID `json:"userId"`
}

type loginResponse struct {
	envelope
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type meResponse struct {
	envelope
	User userResponse `json:"user"`
}

// Register handles POST /auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.respondError(w, r, err, "Registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{envelope: ok("Registration successful"), UserID: user.ID})
}

// Login handles POST /auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(w, r, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		envelope: ok("Login successful"),
		Token:    res.Token,
		User:     userToResponse(res.User, false),
	})
}

// Me handles GET /auth/me.
func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	id, authed := caller(w, r)
	if !authed {
		return
	}

	user, err := s.auth.Profile(r.Context(), id.UserID)
	if err != nil {
		s.respondError(w, r, err, "Failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{envelope: ok(""), User: userToResponse(user, true)})
}

func userToResponse(u domain.User, withCreated bool) userResponse {
	resp := userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
	if withCreated {
		created := u.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}
