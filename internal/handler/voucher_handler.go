package handler

import (
	"net/http"

	"voucher-pool/internal/model"
	"voucher-pool/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// VoucherHandler handles voucher-related HTTP requests.
type VoucherHandler struct {
	service service.VoucherService
	logger  zerolog.Logger
}

// NewVoucherHandler creates a new voucher handler.
func NewVoucherHandler(service service.VoucherService, logger zerolog.Logger) *VoucherHandler {
	return &VoucherHandler{
		service: service,
		logger:  logger.With().Str("handler", "voucher").Logger(),
	}
}

// Generate handles POST /api/vouchers/generate requests.
func (h *VoucherHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.IssueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	voucher, err := h.service.Issue(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, voucher)
}

// Redeem handles POST /api/vouchers/redeem requests.
func (h *VoucherHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req model.RedeemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	resp, err := h.service.Redeem(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// CustomerValid handles GET /api/vouchers/customer-valid?email= requests.
func (h *VoucherHandler) CustomerValid(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.service.ValidVouchers(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, vouchers)
}

// GetByCode handles GET /api/vouchers/{code} requests.
func (h *VoucherHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	voucher, err := h.service.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, voucher)
}

// Delete handles DELETE /api/vouchers/{id} requests.
func (h *VoucherHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
