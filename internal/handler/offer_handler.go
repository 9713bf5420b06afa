package handler

import (
	"net/http"

	"voucher-pool/internal/model"
	"voucher-pool/internal/service"

	"github.com/rs/zerolog"
)

// OfferHandler handles offer-related HTTP requests.
type OfferHandler struct {
	service service.OfferService
	logger  zerolog.Logger
}

// NewOfferHandler creates a new offer handler.
func NewOfferHandler(service service.OfferService, logger zerolog.Logger) *OfferHandler {
	return &OfferHandler{
		service: service,
		logger:  logger.With().Str("handler", "offer").Logger(),
	}
}

// Create handles POST /api/offers requests.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OfferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	offer, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, offer)
}

// GetAll handles GET /api/offers requests with pagination.
func (h *OfferHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	offers, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, offers)
}

// GetByID handles GET /api/offers/{id} requests.
func (h *OfferHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	offer, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, offer)
}

// Delete handles DELETE /api/offers/{id} requests.
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
