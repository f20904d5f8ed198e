package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aussiebroadwan/greenadmin/internal/admin/metrics"
	"github.com/aussiebroadwan/greenadmin/internal/admin/seed"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/pkg/httpx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	apiKey       string

	store    store.Store
	Director *seed.Director
	Gatherer prometheus.Gatherer

	WriteLimit httpx.RateLimitConfig
	ReadLimit  httpx.RateLimitConfig
	ProbeLimit httpx.RateLimitConfig
}

// NewRouter builds a router over director's managers. Every /v1 route
// requires apiKey in the X-Admin-API-Key header.
func NewRouter(buildVersion, apiKey string, st store.Store, director *seed.Director, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		apiKey:       apiKey,
		store:        st,
		Director:     director,
		Gatherer:     prometheus.DefaultGatherer,
		WriteLimit:   httpx.WriteLimit,
		ReadLimit:    httpx.ReadLimit,
		ProbeLimit:   httpx.ProbeLimit,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSystem()
	r.registerClients()
	r.registerResources()
	r.registerRoles()
	r.registerUsers()
	r.registerSeed()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain. Metrics wrap the mux directly so they see the matched
// route pattern.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(metrics.HTTPMiddleware(r.Mux), r.middlewares...).ServeHTTP(w, req)
}

// read and write wrap admin handlers with authentication, actor tracking and
// the matching rate limit.
func (r *Router) read(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		httpx.APIKeyMiddleware(r.apiKey),
		httpx.ActorMiddleware,
		httpx.RateLimitByIP(r.ReadLimit),
	)
}

func (r *Router) write(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		httpx.APIKeyMiddleware(r.apiKey),
		httpx.ActorMiddleware,
		httpx.RateLimitByActor(r.WriteLimit),
	)
}

func (r *Router) registerSystem() {
	probe := httpx.RateLimitByIP(r.ProbeLimit)

	r.Mux.Handle("GET /livez", httpx.Chain(LivezHandler(r.startTime, r.buildVersion), probe))
	r.Mux.Handle("GET /readyz", httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store), probe))
	r.Mux.Handle("GET /metrics", httpx.Chain(promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{}), probe))
}

func (r *Router) registerClients() {
	h := &ClientsHandler{Clients: r.Director.Clients}

	r.Mux.Handle("GET /v1/clients", r.read(h.HandleList))
	r.Mux.Handle("GET /v1/clients/{clientId}", r.read(h.HandleGet))
	r.Mux.Handle("POST /v1/clients", r.write(h.HandleCreate))
	r.Mux.Handle("PUT /v1/clients/{clientId}", r.write(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/clients/{clientId}", r.write(h.HandleDelete))
	r.Mux.Handle("POST /v1/clients/{clientId}/secrets", r.write(h.HandleGenerateSecret))
}

func (r *Router) registerResources() {
	for path, m := range map[string]*ResourcesHandler{
		"/v1/api-scopes":         {Resources: r.Director.APIScopes},
		"/v1/identity-resources": {Resources: r.Director.IdentityResources},
	} {
		r.Mux.Handle("GET "+path, r.read(m.HandleList))
		r.Mux.Handle("GET "+path+"/{name}", r.read(m.HandleGet))
		r.Mux.Handle("POST "+path, r.write(m.HandleCreate))
		r.Mux.Handle("PUT "+path+"/{name}", r.write(m.HandleUpdate))
		r.Mux.Handle("DELETE "+path+"/{name}", r.write(m.HandleDelete))
	}
}

func (r *Router) registerRoles() {
	h := &RolesHandler{Roles: r.Director.Roles}

	r.Mux.Handle("GET /v1/roles", r.read(h.HandleList))
	r.Mux.Handle("GET /v1/roles/{name}", r.read(h.HandleGet))
	r.Mux.Handle("POST /v1/roles", r.write(h.HandleCreate))
	r.Mux.Handle("PUT /v1/roles/{name}", r.write(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/roles/{name}", r.write(h.HandleDelete))
	r.Mux.Handle("GET /v1/roles/{name}/claims", r.read(h.HandleGetClaims))
	r.Mux.Handle("PUT /v1/roles/{name}/claims", r.write(h.HandleSetClaims))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Users: r.Director.Users}

	r.Mux.Handle("GET /v1/users", r.read(h.HandleList))
	r.Mux.Handle("GET /v1/users/{id}", r.read(h.HandleGet))
	r.Mux.Handle("POST /v1/users", r.write(h.HandleCreate))
	r.Mux.Handle("PUT /v1/users/{id}", r.write(h.HandleUpdate))
	r.Mux.Handle("PUT /v1/users/{id}/password", r.write(h.HandleSetPassword))
	r.Mux.Handle("DELETE /v1/users/{id}", r.write(h.HandleDelete))
	r.Mux.Handle("GET /v1/users/{id}/claims", r.read(h.HandleGetClaims))
	r.Mux.Handle("PUT /v1/users/{id}/claims", r.write(h.HandleSetClaims))
	r.Mux.Handle("GET /v1/users/{id}/roles", r.read(h.HandleGetRoles))
	r.Mux.Handle("PUT /v1/users/{id}/roles", r.write(h.HandleSetRoles))
}

func (r *Router) registerSeed() {
	h := &SeedHandler{Director: r.Director}

	r.Mux.Handle("POST /v1/seed", r.write(h.HandleSeedAll))
	r.Mux.Handle("POST /v1/seed/{kind}", r.write(h.HandleSeed))
	r.Mux.Handle("GET /v1/export", r.read(h.HandleExport))
}
