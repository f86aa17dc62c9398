package inbox

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodySize caps inbound webhook bodies at 1 MiB
const maxBodySize = 1 << 20

// Handler builds the inbound webhook router: one POST endpoint per
// registered verifier, mounted at /webhooks/{provider}.
//
// Responses: 200 with the stored event on success or duplicate receipt,
// 400 on a signature or payload failure (the provider must not retry),
// 404 for an unregistered provider.
func Handler(service *Service, verifiers ...Verifier) http.Handler {
	byProvider := make(map[string]Verifier, len(verifiers))
	for _, v := range verifiers {
		byProvider[v.Provider()] = v
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	r.Post("/webhooks/{provider}", receiveWebhook(service, byProvider))

	return r
}

func receiveWebhook(service *Service, verifiers map[string]Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		verifier, ok := verifiers[provider]
		if !ok {
			writeError(w, http.StatusNotFound, "unknown provider")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		identity, err := verifier.Verify(r.Header, body)
		if err != nil {
			// Terminal rejection: the original sender owns any retry
			switch {
			case errors.Is(err, ErrInvalidSignature):
				writeError(w, http.StatusBadRequest, "invalid signature")
			case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrMissingIdentity):
				writeError(w, http.StatusBadRequest, "invalid payload")
			default:
				writeError(w, http.StatusBadRequest, "verification failed")
			}
			return
		}

		event, err := service.Receive(r.Context(), provider, identity, body, flattenHeaders(r.Header))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store event")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     event.ID,
			"status": event.Status,
		})
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// flattenHeaders keeps the first value of each request header for the
// stored event record
func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) > 0 {
			flat[key] = values[0]
		}
	}
	return flat
}
