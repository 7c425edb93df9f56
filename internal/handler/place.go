package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

type addPlaceRequest struct {
	PlaceName string          `json:"place_name"`
	PlaceType string          `json:"place_type"`
	Address   string          `json:"address"`
	Latitude  coordinate      `json:"latitude"`
	Longitude coordinate      `json:"longitude"`
	APIData   json.RawMessage `json:"api_data"`
}

type candidateResponse struct {
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Lat         float64         `json:"lat"`
	Lon         float64         `json:"lon"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

type placeResponse struct {
	ID          uuid.UUID       `json:"id"`
	TripID      uuid.UUID       `json:"trip_id"`
	PlaceName   string          `json:"place_name"`
	PlaceType   string          `json:"place_type"`
	Address     string          `json:"address"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	APIData     json.RawMessage `json:"api_data"`
	AddedBy     uuid.UUID       `json:"added_by"`
	AddedByName string          `json:"added_by_name"`
	CreatedAt   time.Time       `json:"created_at"`
}

type searchPlacesResponse struct {
	envelope
	Places []candidateResponse `json:"places"`
}

type addPlaceResponse struct {
	envelope
	PlaceID uuid.UUID `json:"placeId"`
}

type listPlacesResponse struct {
	envelope
	Places []placeResponse `json:"places"`
}

// SearchPlaces handles GET /places/search?city=&category=.
func (s *Server) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	if _, authed := caller(w, r); !authed {
		return
	}
	city, err := queryString(r, "city")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	category, err := queryString(r, "category")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	found, err := s.places.Search(r.Context(), city, category)
	if err != nil {
		s.respondError(w, r, err, "Failed to fetch places from Nominatim API")
		return
	}
	data := make([]candidateResponse, len(found))
	for i, c := range found {
		data[i] = candidateResponse{
			Name:        c.Name,
			DisplayName: c.DisplayName,
			Category:    c.Category,
			Type:        c.Type,
			Lat:         c.Latitude,
			Lon:         c.Longitude,
			Raw:         c.Raw,
		}
	}
	writeJSON(w, http.StatusOK, searchPlacesResponse{envelope: ok(""), Places: data})
}

// AddPlace handles POST /trips/{tripID}/places.
func (s *Server) AddPlace(w http.ResponseWriter, r *http.Request) {
	id, authed := caller(w, r)
	if !authed {
		return
	}
	tripID, valid := tripIDParam(w, r)
	if !valid {
		return
	}
	var req addPlaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	place, err := s.places.Add(r.Context(), tripID, id.UserID, service.PlaceInput{
		Name:      req.PlaceName,
		Type:      req.PlaceType,
		Address:   req.Address,
		Latitude:  req.Latitude.value,
		Longitude: req.Longitude.value,
		APIData:   req.APIData,
	})
	if err != nil {
		s.respondError(w, r, err, "Failed to add place")
		return
	}
	writeJSON(w, http.StatusCreated, addPlaceResponse{envelope: ok("Place added to trip"), PlaceID: place.ID})
}

// ListPlaces handles GET /trips/{tripID}/places.
func (s *Server) ListPlaces(w http.ResponseWriter, r *http.Request) {
	id, authed := caller(w, r)
	if !authed {
		return
	}
	tripID, valid := tripIDParam(w, r)
	if !valid {
		return
	}

	places, err := s.places.ListByTrip(r.Context(), tripID, id.UserID)
	if err != nil {
		s.respondError(w, r, err, "Failed to get places")
		return
	}
	data := make([]placeResponse, len(places))
	for i, p := range places {
		data[i] = placeToResponse(p)
	}
	writeJSON(w, http.StatusOK, listPlacesResponse{envelope: ok(""), Places: data})
}

func placeToResponse(p domain.Place) placeResponse {
	return placeResponse{
		ID:          p.ID,
		TripID:      p.TripID,
		PlaceName:   p.Name,
		PlaceType:   p.Type,
		Address:     p.Address,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		APIData:     p.APIData,
		AddedBy:     p.AddedBy,
		AddedByName: p.AddedByName,
		CreatedAt:   p.CreatedAt,
	}
}
