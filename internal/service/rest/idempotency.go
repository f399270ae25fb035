package rest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/nikitaegorov/storefront/internal/domain"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	idempotencyKeyTTL    = 24 * time.Hour
)

// responseRecorder перехватывает статус и тело ответа для сохранения
// в idempotency-записи.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

// idempotent реализует повтор запросов по заголовку Idempotency-Key.
// Первый запрос с ключом выполняется и его ответ сохраняется; повтор
// с тем же ключом и тем же телом получает сохранённый ответ. Повтор
// с другим телом отклоняется, незавершённый запрос отвечает конфликтом.
func (h *Handler) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(headerIdempotencyKey)
		if key == "" || h.idempotency == nil {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		requestHash := hashRequest(r.Method, r.URL.Path, body)
		record, err := h.idempotency.CreateProcessing(key, requestHash, time.Now().UTC().Add(idempotencyKeyTTL))
		switch {
		case err == nil:
			// Первый запрос с этим ключом, выполняем и сохраняем ответ.
		case errors.Is(err, domain.ErrIdempotencyHashMismatch):
			writeJSON(w, http.StatusConflict, errorResponse{Error: "idempotency key was used with a different request"})
			return
		case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
			if record.Status == domain.IdempotencyStatusProcessing {
				writeJSON(w, http.StatusConflict, errorResponse{Error: "request with this idempotency key is still being processed"})
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(record.HTTPStatus)
			_, _ = w.Write(record.ResponseBody)
			return
		default:
			h.logger.WithError(err).WithField("idempotency_key", key).Error("idempotency lookup failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		recorder := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		responseBody := recorder.body.Bytes()

		var markErr error
		if status < http.StatusInternalServerError {
			markErr = h.idempotency.MarkDone(key, responseBody, status)
		} else {
			markErr = h.idempotency.MarkFailed(key, responseBody, status)
		}
		if markErr != nil {
			h.logger.WithError(markErr).WithField("idempotency_key", key).Warn("failed to store idempotency response")
		}
	})
}

// hashRequest считает sha256 от метода, пути и тела запроса.
func hashRequest(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte("\n"))
	sum.Write([]byte(path))
	sum.Write([]byte("\n"))
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}
