package httpx_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/greenadmin/pkg/httpx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("prefers X-Forwarded-For", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
		require.Equal(t, "203.0.113.1", httpx.IPKeyExtractor(req))
	})

	t.Run("uses X-Real-IP if X-Forwarded-For absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "203.0.113.2", httpx.IPKeyExtractor(req))
	})
}

func TestCompositeKeyExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	extractor := httpx.CompositeKeyExtractor(":", httpx.ActorKeyExtractor, httpx.IPKeyExtractor)

	require.Equal(t, "192.168.1.1", extractor(req))

	req.Header.Set(httpx.HeaderActor, "alice")
	require.Equal(t, "alice:192.168.1.1", extractor(req))
}

func TestRateLimitMiddleware(t *testing.T) {
	newReq := func(addr string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		return req
	}

	t.Run("blocks requests over limit", func(t *testing.T) {
		h := httpx.RateLimitByIP(httpx.RateLimitConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3})(ok)

		for i := range 3 {
			require.Equal(t, http.StatusOK, serve(h, newReq("192.168.1.1:1")).Code, "request %d", i+1)
		}

		rec := serve(h, newReq("192.168.1.1:1"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, "1m0s", rec.Header().Get("X-RateLimit-Window"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		h := httpx.RateLimitByIP(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1})(ok)

		require.Equal(t, http.StatusOK, serve(h, newReq("10.0.0.1:1")).Code)
		require.Equal(t, http.StatusTooManyRequests, serve(h, newReq("10.0.0.1:1")).Code)
		require.Equal(t, http.StatusOK, serve(h, newReq("10.0.0.2:1")).Code)
	})

	t.Run("allows request when key extractor returns empty", func(t *testing.T) {
		cfg := httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}
		h := httpx.RateLimitMiddleware(cfg, func(*http.Request) string { return "" })(ok)

		for range 3 {
			require.Equal(t, http.StatusOK, serve(h, newReq("10.0.0.1:1")).Code)
		}
	})
}

func TestParseRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimitConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	t.Run("no env keeps defaults", func(t *testing.T) {
		require.Equal(t, def, httpx.ParseRateLimitFromEnv("TEST", def))
	})

	t.Run("overrides all parameters", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "200")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
		t.Setenv("RATELIMIT_TEST_BURST", "250")

		got := httpx.ParseRateLimitFromEnv("TEST", def)
		require.Equal(t, httpx.RateLimitConfig{RequestsPerWindow: 200, Window: 30 * time.Second, Burst: 250}, got)
	})

	t.Run("invalid values keep defaults", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "invalid")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "-10")
		t.Setenv("RATELIMIT_TEST_BURST", "0")

		require.Equal(t, def, httpx.ParseRateLimitFromEnv("TEST", def))
	})
}

func TestAPIKeyMiddleware(t *testing.T) {
	h := httpx.APIKeyMiddleware("s3cret")(ok)

	req := httptest.NewRequest(http.MethodGet, "/v1/clients", nil)
	require.Equal(t, http.StatusUnauthorized, serve(h, req).Code)

	req.Header.Set(httpx.HeaderAPIKey, "wrong")
	require.Equal(t, http.StatusUnauthorized, serve(h, req).Code)

	req.Header.Set(httpx.HeaderAPIKey, "s3cret")
	require.Equal(t, http.StatusOK, serve(h, req).Code)

	t.Run("empty key locks the api", func(t *testing.T) {
		locked := httpx.APIKeyMiddleware("")(ok)
		req := httptest.NewRequest(http.MethodGet, "/v1/clients", nil)
		req.Header.Set(httpx.HeaderAPIKey, "")
		require.Equal(t, http.StatusUnauthorized, serve(locked, req).Code)
	})
}

func TestActorMiddleware(t *testing.T) {
	var actor string
	h := httpx.ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = slogx.Actor(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	require.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	require.Empty(t, actor)

	post := httptest.NewRequest(http.MethodPost, "/", nil)
	require.Equal(t, http.StatusBadRequest, serve(h, post).Code)

	post.Header.Set(httpx.HeaderActor, "alice")
	require.Equal(t, http.StatusOK, serve(h, post).Code)
	require.Equal(t, "alice", actor)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	serve(httpx.Chain(ok, mark("a"), mark("b"), mark("c")), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, httpx.DecodeJSON(req, &dst))
	require.Equal(t, "x", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
	require.Error(t, httpx.DecodeJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"x"} {}`))
	require.Error(t, httpx.DecodeJSON(req, &dst))
}
