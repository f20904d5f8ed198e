package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/pkg/httpx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

// writeError maps the admin error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		argErr *domain.ArgumentError
		valErr *domain.ValidationError
	)

	switch {
	case errors.As(err, &argErr):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", argErr.Error())
	case errors.As(err, &valErr):
		httpx.WriteJSON(w, http.StatusBadRequest, validationResponse{
			Error:            "invalid_configuration",
			ErrorDescription: valErr.Error(),
			Section:          valErr.Section,
			Problems:         valErr.Problems,
		})
	case errors.Is(err, domain.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", rootMessage(err))
	case errors.Is(err, store.ErrAlreadyExists):
		httpx.WriteError(w, http.StatusConflict, "conflict", "entity already exists")
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

type validationResponse struct {
	Error            string   `json:"error"`
	ErrorDescription string   `json:"error_description"`
	Section          string   `json:"section"`
	Problems         []string `json:"problems"`
}

// rootMessage returns the message of the *domain.NotFoundError inside err so
// clients see the missing key rather than the wrapping operation.
func rootMessage(err error) string {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return err.Error()
}

func badRequest(w http.ResponseWriter, err error) {
	httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
}
