package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

type createTripRequest struct {
	TripName    string `json:"trip_name"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
}

type tripResponse struct {
	ID          uuid.UUID           `json:"id"`
	UserID      uuid.UUID           `json:"user_id"`
	CreatorName string              `json:"creator_name"`
	TripName    string              `json:"trip_name"`
	Destination string              `json:"destination"`
	StartDate   *openapi_types.Date `json:"start_date"`
	EndDate     *openapi_types.Date `json:"end_date"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
}

type memberResponse struct {
	UserID   uuid.UUID   `json:"user_id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	JoinedAt time.Time   `json:"joined_at"`
}

type createTripResponse struct {
	envelope
	TripID uuid.UUID `json:"tripId"`
}

type listTripsResponse struct {
	envelope
	Trips []tripResponse `json:"trips"`
}

type tripDetailsResponse struct {
	envelope
	Trip    tripResponse     `json:"trip"`
	Members []memberResponse `json:"members"`
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	id, authed := caller(w, r)
	if !authed {
		return
	}
	var req createTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, msg := req.toInput()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	trip, err := s.trips.Create(r.Context(), id.UserID, in)
	if err != nil {
		s.respondError(w, r, err, "Failed to create trip")
		return
	}
	writeJSON(w, http.StatusCreated, createTripResponse{envelope: ok("Trip created successfully"), TripID: trip.ID})
}

func (req createTripRequest) toInput() (service.TripInput, string) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return service.TripInput{}, "start_date must be YYYY-MM-DD"
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return service.TripInput{}, "end_date must be YYYY-MM-DD"
	}
	return service.TripInput{
		Name:        req.TripName,
		Destination: req.Destination,
		StartDate:   start,
		EndDate:     end,
		Description: req.Description,
	}, ""
}

// ListTrips handles GET /trips.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	id, authed := caller(w, r)
	if !authed {
		return
	}

	trips, err := s.trips.ListForUser(r.Context(), id.UserID)
	if err != nil {
		s.respondError(w, r, err, "Failed to get trips")
		return
	}
	data := make([]tripResponse, len(trips))
	for i, t := range trips {
		data[i] = tripToResponse(t)
	}
	writeJSON(w, http.StatusOK, listTripsResponse{envelope: ok(""), Trips: data})
}

// GetTrip handles GET /trips/{tripID}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, authed := caller(w, r)
	if !authed {
		return
	}
	tripID, valid := tripIDParam(w, r)
	if !valid {
		return
	}

	d, err := s.trips.Details(r.Context(), tripID, id.UserID)
	if err != nil {
		s.respondError(w, r, err, "Failed to get trip details")
		return
	}
	members := make([]memberResponse, len(d.Members))
	for i, m := range d.Members {
		members[i] = memberResponse{UserID: m.UserID, Username: m.Username, Email: m.Email, Role: m.Role, JoinedAt: m.JoinedAt}
	}
	writeJSON(w, http.StatusOK, tripDetailsResponse{envelope: ok(""), Trip: tripToResponse(d.Trip), Members: members})
}

// InviteMember handles POST /trips/{tripID}/invitations.
func (s *Server) InviteMember(w http.ResponseWriter, r *http.Request) {
	id, authed := caller(w, r)
	if !authed {
		return
	}
	tripID, valid := tripIDParam(w, r)
	if !valid {
		return
	}
	var req inviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.trips.Invite(r.Context(), tripID, id.UserID, req.Email); err != nil {
		s.respondError(w, r, err, "Failed to invite member")
		return
	}
	writeJSON(w, http.StatusOK, ok("Member invited successfully"))
}

// AddMember handles POST /trips/{tripID}/members.
func (s *Server) AddMember(w http.ResponseWriter, r *http.Request) {
	id, authed := caller(w, r)
	if !authed {
		return
	}
	tripID, valid := tripIDParam(w, r)
	if !valid {
		return
	}
	var req addMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := s.trips.AddMember(r.Context(), tripID, id.UserID, userID); err != nil {
		s.respondError(w, r, err, "Failed to add member")
		return
	}
	writeJSON(w, http.StatusOK, ok("Member added successfully"))
}

// tripToResponse converts a domain.Trip into its JSON representation.
func tripToResponse(t domain.Trip) tripResponse {
	resp := tripResponse{
		ID:          t.ID,
		UserID:      t.OwnerID,
		CreatorName: t.OwnerName,
		TripName:    t.Name,
		Destination: t.Destination,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	if t.StartDate != nil {
		resp.StartDate = &openapi_types.Date{Time: *t.StartDate}
	}
	if t.EndDate != nil {
		resp.EndDate = &openapi_types.Date{Time: *t.EndDate}
	}
	return resp
}
