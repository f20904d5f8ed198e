package http

import (
	"net/http"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/manager"
	"github.com/aussiebroadwan/greenadmin/internal/admin/seed"
	"github.com/aussiebroadwan/greenadmin/pkg/httpx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

// ResourcesHandler serves API scopes or identity resources, whichever kind
// its manager was built for.
type ResourcesHandler struct {
	Resources *manager.ResourceManager
}

type resourceResponse struct {
	ID string `json:"id"`
	seed.ResourceRecord
}

type listResourcesResponse struct {
	Kind      domain.Kind        `json:"kind"`
	Resources []resourceResponse `json:"resources"`
}

func (h *ResourcesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Resources.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := listResourcesResponse{Kind: h.Resources.Kind(), Resources: make([]resourceResponse, len(list))}
	for i, res := range list {
		resp.Resources[i] = resourceResponse{ID: res.ID, ResourceRecord: seed.FromResource(res)}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ResourcesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res, err := h.Resources.GetByName(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resourceResponse{ID: res.ID, ResourceRecord: seed.FromResource(res)})
}

func (h *ResourcesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req seed.ResourceRecord
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	res, err := h.Resources.Create(r.Context(), req.ToDomain(), slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resourceResponse{ID: res.ID, ResourceRecord: seed.FromResource(res)})
}

// HandleUpdate reconciles the named resource with the body: user claims and
// properties are merged by difference, not replaced.
func (h *ResourcesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req seed.ResourceRecord
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	name := r.PathValue("name")
	if req.Name != "" && req.Name != name {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "name in body does not match path")
		return
	}
	req.Name = name

	res, err := h.Resources.Update(r.Context(), req.ToDomain(), slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resourceResponse{ID: res.ID, ResourceRecord: seed.FromResource(res)})
}

func (h *ResourcesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Resources.Delete(r.Context(), r.PathValue("name"), slogx.Actor(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
