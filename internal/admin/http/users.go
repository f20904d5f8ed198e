package http

import (
	"net/http"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/manager"
	"github.com/aussiebroadwan/greenadmin/internal/admin/seed"
	"github.com/aussiebroadwan/greenadmin/pkg/httpx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

type UsersHandler struct {
	Users *manager.UserManager
}

type userResponse struct {
	ID string `json:"id"`
	seed.UserRecord
}

type listUsersResponse struct {
	Users []userResponse `json:"users"`
}

type rolesRequest struct {
	Roles []string `json:"roles"`
}

type userRolesResponse struct {
	Roles []roleResponse `json:"roles"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, UserRecord: seed.FromUser(u)}
}

func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := listUsersResponse{Users: make([]userResponse, len(users))}
	for i, u := range users {
		resp.Users[i] = newUserResponse(u)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	u, ok, err := h.Users.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, &domain.NotFoundError{Kind: domain.KindUsers, Key: id})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(u))
}

// HandleCreate stores a user; a password in the body is hashed and never
// echoed back.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req seed.UserRecord
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	u, err := h.Users.Create(r.Context(), req.ToDomain(), req.Password, slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, newUserResponse(u))
}

// HandleUpdate overwrites the profile of the user in the path. Passwords
// change through the password endpoint only.
func (h *UsersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req seed.UserRecord
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}
	if req.Password != "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "use the password endpoint to change passwords")
		return
	}

	u := req.ToDomain()
	u.ID = r.PathValue("id")

	updated, err := h.Users.Update(r.Context(), u, slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(updated))
}

func (h *UsersHandler) HandleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	if err := h.Users.SetPassword(r.Context(), r.PathValue("id"), req.Password, slogx.Actor(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Users.Delete(r.Context(), r.PathValue("id"), slogx.Actor(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) HandleGetClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.Users.Claims(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, claimsResponse{Claims: nonNil(seed.ClaimRecords(claims))})
}

// HandleSetClaims makes the user hold exactly the claims in the body.
func (h *UsersHandler) HandleSetClaims(w http.ResponseWriter, r *http.Request) {
	var req claimsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	claims, err := h.Users.SetClaims(r.Context(), r.PathValue("id"), seed.Claims(req.Claims), slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, claimsResponse{Claims: nonNil(seed.ClaimRecords(claims))})
}

func (h *UsersHandler) HandleGetRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Users.Roles(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRoles(w, roles)
}

// HandleSetRoles makes the user a member of exactly the named roles.
func (h *UsersHandler) HandleSetRoles(w http.ResponseWriter, r *http.Request) {
	var req rolesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	roles, err := h.Users.SetRoles(r.Context(), r.PathValue("id"), req.Roles, slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRoles(w, roles)
}

func writeRoles(w http.ResponseWriter, roles []domain.Role) {
	resp := userRolesResponse{Roles: make([]roleResponse, len(roles))}
	for i, role := range roles {
		resp.Roles[i] = newRoleResponse(role)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
