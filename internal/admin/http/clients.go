package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/manager"
	"github.com/aussiebroadwan/greenadmin/internal/admin/seed"
	"github.com/aussiebroadwan/greenadmin/pkg/httpx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

type ClientsHandler struct {
	Clients *manager.ClientManager
}

type clientResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	seed.ClientRecord
}

type listClientsResponse struct {
	Clients []clientResponse `json:"clients"`
}

func (h *ClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Clients.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := listClientsResponse{Clients: make([]clientResponse, len(clients))}
	for i, c := range clients {
		resp.Clients[i] = clientResponse{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, ClientRecord: seed.FromClient(c)}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.Clients.GetByClientID(r.Context(), r.PathValue("clientId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, clientResponse{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, ClientRecord: seed.FromClient(c)})
}

// HandleCreate registers a client. Plaintext secrets in the body are hashed
// before storage unless marked isHashed.
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req seed.ClientRecord
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	c, err := h.Clients.Create(r.Context(), req.ToDomain(), slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, clientResponse{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, ClientRecord: seed.FromClient(c)})
}

// HandleUpdate replaces the client named in the path, including every child
// collection.
func (h *ClientsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req seed.ClientRecord
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badRequest(w, err)
		return
	}

	clientID := r.PathValue("clientId")
	if req.ClientID != "" && req.ClientID != clientID {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "clientId in body does not match path")
		return
	}
	req.ClientID = clientID

	c, err := h.Clients.Update(r.Context(), req.ToDomain(), slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, clientResponse{ID: c.ID, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt, ClientRecord: seed.FromClient(c)})
}

type generateSecretRequest struct {
	Description string     `json:"description"`
	Expiration  *time.Time `json:"expiration"`
}

type generateSecretResponse struct {
	ClientID string `json:"clientId"`
	Secret   string `json:"secret"`
}

// HandleGenerateSecret adds a random secret to the client. The plaintext is
// in the response and nowhere else.
func (h *ClientsHandler) HandleGenerateSecret(w http.ResponseWriter, r *http.Request) {
	var req generateSecretRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			badRequest(w, err)
			return
		}
	}

	clientID := r.PathValue("clientId")
	secret, _, err := h.Clients.GenerateSecret(r.Context(), clientID, req.Description, req.Expiration, slogx.Actor(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, generateSecretResponse{ClientID: clientID, Secret: secret})
}

func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Clients.Delete(r.Context(), r.PathValue("clientId"), slogx.Actor(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
