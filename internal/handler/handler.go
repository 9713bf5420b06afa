package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"voucher-pool/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Warn().Str("error", code).Int("status", status).Msg(message)
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps err to a status code and writes it. Errors that are not
// domain errors are logged and hidden behind a generic 500.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var de *model.DomainError
	if !errors.As(err, &de) {
		logger.Error().Err(err).Msg("unhandled error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}

	status := statusFor(de)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("error", de.Code).Int("status", status).Msg("request failed")
	} else {
		logger.Debug().Str("error", de.Code).Int("status", status).Msg("request rejected")
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, status, model.ErrorResponse{Error: de.Code, Message: de.Message})
}

func statusFor(de *model.DomainError) int {
	switch de.Kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindInvalidState:
		if de.Code == model.ErrCodeAlreadyUsed {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case model.KindConflict:
		return http.StatusConflict
	case model.KindExhausted, model.KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.ValidationError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}

// pathUUID parses the named chi URL parameter as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, model.ValidationError(model.ErrCodeInvalidID, "invalid "+name+" format")
	}
	return id, nil
}

// pagination reads limit and offset query parameters.
func pagination(r *http.Request) (limit, offset int, err error) {
	limit, offset = defaultLimit, 0

	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, model.ValidationError(model.ErrCodeInvalidPagination, "limit must be between 1 and 100")
		}
	}

	if s := r.URL.Query().Get("offset"); s != "" {
		offset, err = strconv.Atoi(s)
		if err != nil || offset < 0 {
			return 0, 0, model.ValidationError(model.ErrCodeInvalidPagination, "offset must be a non-negative integer")
		}
	}

	return limit, offset, nil
}
