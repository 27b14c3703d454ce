package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/model"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/usecase"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/errutil"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

// respondError maps domain and use case sentinels to HTTP status codes
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrIncidentNotFound),
		errors.Is(err, usecase.ErrPostmortemNotFound),
		errors.Is(err, model.ErrUnknownActionItem):
		return http.StatusNotFound
	case errors.Is(err, model.ErrTenantMismatch):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrNoActiveAlert),
		errors.Is(err, model.ErrIncidentNotResolved):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidPriority):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func incidentIDParam(r *http.Request) (types.IncidentID, error) {
	raw := chi.URLParam(r, "incidentID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, goerr.New("invalid incident ID", goerr.V("raw", raw))
	}
	return types.IncidentID(id), nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return goerr.Wrap(err, "failed to decode request body")
	}
	return nil
}
