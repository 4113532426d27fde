package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parkfinder/internal/db"
	"parkfinder/internal/entities"
	apperrors "parkfinder/internal/errors"
	"parkfinder/internal/logging"
	"parkfinder/internal/query"
	"parkfinder/internal/validation"
)

type ParkingLotService interface {
	List(ctx context.Context, bounds *query.Bounds) ([]db.ParkingLot, error)
	Create(ctx context.Context, req *entities.CreateParkingLotRequest) (primitive.ObjectID, error)
	Update(ctx context.Context, id primitive.ObjectID, req *entities.UpdateParkingLotRequest) error
	Reserve(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type ParkingLotHandler struct {
	Service ParkingLotService
}

func NewParkingLotHandler(svc ParkingLotService) *ParkingLotHandler {
	return &ParkingLotHandler{Service: svc}
}

func (h *ParkingLotHandler) ListParkingLots(w http.ResponseWriter, r *http.Request) {
	var bounds *query.Bounds
	if raw := r.URL.Query().Get("bounds"); raw != "" {
		parsed, ok := query.ParseBounds(raw)
		if ok {
			bounds = &parsed
		} else {
			// A bad viewport must never fail the request.
			logging.Logger.WithField("bounds", raw).Warn("Ignoring malformed bounds parameter")
		}
	}

	lots, err := h.Service.List(r.Context(), bounds)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, lots)
}

func (h *ParkingLotHandler) CreateParkingLot(w http.ResponseWriter, r *http.Request) {
	var req entities.CreateParkingLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid request body."})
		return
	}

	if err := validation.ValidateCreate(&req); err != nil {
		h.handleError(w, r, err)
		return
	}

	id, err := h.Service.Create(r.Context(), &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CreateParkingLotResponse{ID: id.Hex()})
}

func (h *ParkingLotHandler) UpdateParkingLot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	var req entities.UpdateParkingLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid request body."})
		return
	}

	if err := validation.ValidateUpdate(&req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.Service.Update(r.Context(), id, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "The parking lot was updated."})
}

func (h *ParkingLotHandler) ReserveParkingLot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Reserve(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "You have reserved the parking lot!"})
}

func (h *ParkingLotHandler) DeleteParkingLot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.lotID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Parking lot was deleted."})
}

// lotID parses the path id. A malformed id can never name an existing
// lot, so it gets the same 404 as an unknown one.
func (h *ParkingLotHandler) lotID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		respondJSON(w, http.StatusNotFound, MessageResponse{Message: apperrors.NewNotFound(raw).Error()})
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *ParkingLotHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *apperrors.NotFoundError
	var full *apperrors.CapacityExceededError
	var invalid *apperrors.ValidationError

	switch {
	case errors.As(err, &invalid):
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{Message: invalid.Fields})
	case errors.As(err, &notFound):
		respondJSON(w, http.StatusNotFound, MessageResponse{Message: notFound.Error()})
	case errors.As(err, &full):
		respondJSON(w, http.StatusConflict, MessageResponse{Message: full.Error()})
	default:
		logging.Logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("Unexpected failure handling request")
		respondJSON(w, http.StatusInternalServerError, MessageResponse{Message: "Internal server error."})
	}
}
