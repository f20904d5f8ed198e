package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/aussiebroadwan/greenadmin/internal/admin/seed"
	"github.com/aussiebroadwan/greenadmin/pkg/httpx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

type SeedHandler struct {
	Director *seed.Director
}

type seedAllResponse struct {
	Results []seed.Result `json:"results"`
}

// HandleSeed runs one seeding pass for the kind in the path. The body is a
// JSON seed document; ?force=true seeds even when the kind is populated.
func (h *SeedHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	tree, force, ok := h.parse(w, r)
	if !ok {
		return
	}

	res, err := h.Director.SeedFromConfiguration(r.Context(), r.PathValue("kind"), tree, slogx.Actor(r.Context()), force)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res)
}

// HandleSeedAll seeds every section present in the body, in dependency order.
func (h *SeedHandler) HandleSeedAll(w http.ResponseWriter, r *http.Request) {
	tree, force, ok := h.parse(w, r)
	if !ok {
		return
	}

	results, err := h.Director.SeedAll(r.Context(), tree, slogx.Actor(r.Context()), force)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, seedAllResponse{Results: nonNil(results)})
}

// HandleExport writes the store as a YAML seed file.
func (h *SeedHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Director.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		slogx.FromContext(r.Context()).Error("failed to encode export", "error", err)
	}
	_ = enc.Close()
}

func (h *SeedHandler) parse(w http.ResponseWriter, r *http.Request) (*viper.Viper, bool, bool) {
	force := false
	if v := r.URL.Query().Get("force"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "force must be a boolean")
			return nil, false, false
		}
		force = b
	}

	tree, err := seed.ReadTree(io.LimitReader(r.Body, httpx.MaxBodyBytes), "json")
	if err != nil {
		badRequest(w, err)
		return nil, false, false
	}
	return tree, force, true
}
