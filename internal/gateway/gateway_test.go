package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/config"
	"github.com/Lixing-Zhang/ecommerce-backend/pkg/logger"
)

// echoUpstream answers with the service name, method, path and query it saw
func echoUpstream(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"service": name,
			"method":  r.Method,
			"path":    r.URL.Path,
			"query":   r.URL.RawQuery,
			"body":    string(body),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGateway(t *testing.T, productURL, orderURL string) *Gateway {
	t.Helper()
	upstreams, err := DefaultUpstreams(config.GatewayConfig{
		ProductServiceURL: productURL,
		OrderServiceURL:   orderURL,
	})
	require.NoError(t, err)
	return New(upstreams, logger.Discard())
}

func TestGateway_ForwardsAllowedRoutes(t *testing.T) {
	products := echoUpstream(t, "product-service")
	orders := echoUpstream(t, "order-service")
	gw := newTestGateway(t, products.URL, orders.URL)

	tests := []struct {
		method      string
		target      string
		wantService string
	}{
		{http.MethodGet, "/api/products", "product-service"},
		{http.MethodPost, "/api/products", "product-service"},
		{http.MethodGet, "/api/products/550e8400-e29b-41d4-a716-446655440000", "product-service"},
		{http.MethodPut, "/api/products/550e8400-e29b-41d4-a716-446655440000", "product-service"},
		{http.MethodDelete, "/api/products/550e8400-e29b-41d4-a716-446655440000", "product-service"},
		{http.MethodGet, "/api/products/search?name=phone", "product-service"},
		{http.MethodGet, "/api/orders", "order-service"},
		{http.MethodPost, "/api/orders", "order-service"},
		{http.MethodGet, "/api/orders/search?productId=550e8400-e29b-41d4-a716-446655440000", "order-service"},
		{http.MethodDelete, "/api/orders/6ba7b810-9dad-11d1-80b4-00c04fd430c8", "order-service"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(`{"k":"v"}`))
			w := httptest.NewRecorder()

			gw.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var echoed map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&echoed))

			u, _ := url.Parse(tt.target)
			assert.Equal(t, tt.wantService, echoed["service"])
			assert.Equal(t, tt.method, echoed["method"])
			assert.Equal(t, u.Path, echoed["path"])
			assert.Equal(t, u.RawQuery, echoed["query"])
			assert.Equal(t, `{"k":"v"}`, echoed["body"])
		})
	}
}

func TestGateway_Forbidden(t *testing.T) {
	products := echoUpstream(t, "product-service")
	orders := echoUpstream(t, "order-service")
	gw := newTestGateway(t, products.URL, orders.URL)

	tests := []struct {
		method string
		target string
	}{
		{http.MethodPatch, "/api/products/550e8400-e29b-41d4-a716-446655440000"},
		{http.MethodDelete, "/api/products"},
		{http.MethodPut, "/api/orders"},
		{http.MethodGet, "/api/orders/1/items"},
		{http.MethodPost, "/api/orders/search"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			gw.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())
		})
	}
}

func TestGateway_UnknownPrefix(t *testing.T) {
	gw := newTestGateway(t, "http://product-service", "http://order-service")

	for _, target := range []string{"/api/coupons", "/api/productsx", "/api"} {
		w := httptest.NewRecorder()
		gw.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, target)
	}
}

func TestGateway_TransportError(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	gw := newTestGateway(t, downURL, downURL)

	w := httptest.NewRecorder()
	gw.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Transport error"}`, w.Body.String())
}

func TestGateway_PassesStatusAndRedirectThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/orders" {
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Order not found"}`))
	}))
	t.Cleanup(upstream.Close)

	gw := newTestGateway(t, upstream.URL, upstream.URL)

	w := httptest.NewRecorder()
	gw.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/elsewhere", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	gw.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders/6ba7b810-9dad-11d1-80b4-00c04fd430c8", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Order not found"}`, w.Body.String())
}

func TestMatchPattern(t *testing.T) {
	assert.True(t, matchPattern("/api/orders/{id}", "/api/orders/abc"))
	assert.True(t, matchPattern("/api/orders", "/api/orders"))
	assert.False(t, matchPattern("/api/orders/{id}", "/api/orders"))
	assert.False(t, matchPattern("/api/orders/{id}", "/api/orders/a/b"))
	assert.False(t, matchPattern("/api/orders/search", "/api/orders/other"))
}
