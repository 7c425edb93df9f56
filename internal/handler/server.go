// Package handler implements the HTTP handlers for the trip planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (auth.go, trip.go, etc.) but share the same Server struct so they can
// access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

// AuthServicer defines the account operations the auth handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
type AuthServicer interface {
	Register(ctx context.Context, username, email, password string) (domain.User, error)
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
	Profile(ctx context.Context, userID uuid.UUID) (domain.User, error)
}

// TripServicer defines the trip and membership operations.
type TripServicer interface {
	Create(ctx context.Context, ownerID uuid.UUID, in service.TripInput) (domain.Trip, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Trip, error)
	Details(ctx context.Context, tripID, userID uuid.UUID) (service.TripDetails, error)
	Invite(ctx context.Context, tripID, callerID uuid.UUID, email string) error
	AddMember(ctx context.Context, tripID, callerID, userID uuid.UUID) error
}

// PlaceServicer defines the place search and trip place operations.
type PlaceServicer interface {
	Search(ctx context.Context, city, category string) ([]domain.PlaceCandidate, error)
	Add(ctx context.Context, tripID, callerID uuid.UUID, in service.PlaceInput) (domain.Place, error)
	ListByTrip(ctx context.Context, tripID, callerID uuid.UUID) ([]domain.Place, error)
}

// ExpenseServicer defines the expense operations.
type ExpenseServicer interface {
	Add(ctx context.Context, tripID, callerID uuid.UUID, in service.ExpenseInput) (domain.Expense, error)
	ListByTrip(ctx context.Context, tripID, callerID uuid.UUID) ([]domain.Expense, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	auth     AuthServicer
	trips    TripServicer
	places   PlaceServicer
	expenses ExpenseServicer
	logger   *slog.Logger
}

// NewServer constructs the Server with all its dependencies. A nil logger
// falls back to slog.Default().
func NewServer(auth AuthServicer, trips TripServicer, places PlaceServicer, expenses ExpenseServicer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{auth: auth, trips: trips, places: places, expenses: expenses, logger: logger}
}

// Mount registers every API route on r. requireAuth guards everything except
// register, login and the health check; authLimit, if non-nil, throttles
// register and login.
func (s *Server) Mount(r chi.Router, requireAuth, authLimit func(http.Handler) http.Handler) {
	r.Get("/healthz", s.GetHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if authLimit != nil {
				r.Use(authLimit)
			}
			r.Post("/register", s.Register)
			r.Post("/login", s.Login)
		})
		r.With(requireAuth).Get("/me", s.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/places/search", s.SearchPlaces)

		r.Route("/trips", func(r chi.Router) {
			r.Post("/", s.CreateTrip)
			r.Get("/", s.ListTrips)
			r.Route("/{tripID}", func(r chi.Router) {
				r.Get("/", s.GetTrip)
				r.Post("/invitations", s.InviteMember)
				r.Post("/members", s.AddMember)
				r.Post("/places", s.AddPlace)
				r.Get("/places", s.ListPlaces)
				r.Post("/expenses", s.AddExpense)
				r.Get("/expenses", s.ListExpenses)
			})
		})
	})
}
