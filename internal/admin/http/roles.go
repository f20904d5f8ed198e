package http

import (
	"net/http"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/manager"
	"github.com/aussiebroadwan/greenadmin/internal/admin/seed"
	"github.com/aussiebroadwan/greenadmin/pkg/httpx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

type RolesHandler struct {
	Roles *manager.RoleManager
}

type roleResponse struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	ConcurrencyStamp string `json:"concurrencyStamp"`
}

type listRolesResponse struct {
	Roles []roleResponse `json:"roles"`
}

type claimsRequest struct {
	Claims []seed.ClaimRecord `json:"claims"`
}

type claimsResponse struct {
	Claims []seed.ClaimRecord `json:"claims"`
}

func newRoleResponse(r domain.Role) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, Description: r.Description, ConcurrencyStamp: r.ConcurrencyStamp}
}

func (h *RolesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Roles.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := listRolesResponse{Roles: make([]roleResponse, len(roles))}
	for i, role := range roles {
		resp.Roles[i] = newRoleResponse(role)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *RolesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	role, err := h.Roles.GetByName(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newRoleResponse(role))
}

func (h *RolesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req seed.RoleRecord
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	role, err := h.Roles.Create(r.Context(), domain.Role{Name: req.Name, Description: req.Description}, slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newRoleResponse(role))
}

// HandleUpdate renames or redescribes the role named in the path.
func (h *RolesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req seed.RoleRecord
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	ctx := r.Context()
	existing, err := h.Roles.GetByName(ctx, r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.Name == "" {
		req.Name = existing.Name
	}

	role, err := h.Roles.Update(ctx, domain.Role{ID: existing.ID, Name: req.Name, Description: req.Description}, slogx.Actor(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newRoleResponse(role))
}

func (h *RolesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Roles.Delete(r.Context(), r.PathValue("name"), slogx.Actor(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RolesHandler) HandleGetClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Roles.Claims(r.Context(), r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, claimsResponse{Claims: nonNil(seed.ClaimRecords(claims))})
}

// HandleSetClaims makes the role hold exactly the claims in the body.
func (h *RolesHandler) HandleSetClaims(w http.ResponseWriter, r *http.Request) {
	var req claimsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	claims, err := h.Roles.SetClaims(r.Context(), r.PathValue("name"), seed.Claims(req.Claims), slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, claimsResponse{Claims: nonNil(seed.ClaimRecords(claims))})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
