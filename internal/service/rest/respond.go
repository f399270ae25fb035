package rest

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/nikitaegorov/storefront/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON сериализует ответ и выставляет статус.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

// statusForError отображает доменные ошибки на HTTP-статусы:
// not found -> 404, конфликты уникальности и версий -> 409,
// нарушение бизнес-правил -> 400, остальное -> 500.
func statusForError(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case domain.IsConflict(err):
		return http.StatusConflict
	case domain.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError отвечает доменной ошибкой в едином формате.
func writeError(w http.ResponseWriter, logger *log.Entry, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.WithError(err).Error("request failed")
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
