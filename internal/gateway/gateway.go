// Package gateway is the public entry point: it forwards allowlisted
// /api requests to the product and order services.
package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"slices"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/config"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/handlers"
)

// Route is an allowed path pattern with its methods. A {name} segment
// matches any single non-empty path segment.
type Route struct {
	Pattern string
	Methods []string
}

// Upstream is one backend service and the routes the gateway exposes for it
type Upstream struct {
	Name   string
	Prefix string
	Target *url.URL
	Routes []Route
}

// DefaultUpstreams returns the product and order service allowlists
func DefaultUpstreams(cfg config.GatewayConfig) ([]Upstream, error) {
	products, err := url.Parse(cfg.ProductServiceURL)
	if err != nil {
		return nil, fmt.Errorf("product service url: %w", err)
	}
	orders, err := url.Parse(cfg.OrderServiceURL)
	if err != nil {
		return nil, fmt.Errorf("order service url: %w", err)
	}

	return []Upstream{
		{
			Name:   "product-service",
			Prefix: "/api/products",
			Target: products,
			Routes: []Route{
				{Pattern: "/api/products", Methods: []string{http.MethodGet, http.MethodPost}},
				{Pattern: "/api/products/{id}", Methods: []string{http.MethodGet, http.MethodPut, http.MethodDelete}},
				{Pattern: "/api/products/search", Methods: []string{http.MethodGet}},
			},
		},
		{
			Name:   "order-service",
			Prefix: "/api/orders",
			Target: orders,
			Routes: []Route{
				{Pattern: "/api/orders", Methods: []string{http.MethodGet, http.MethodPost}},
				{Pattern: "/api/orders/{id}", Methods: []string{http.MethodGet, http.MethodPut, http.MethodDelete}},
				{Pattern: "/api/orders/search", Methods: []string{http.MethodGet}},
			},
		},
	}, nil
}

type upstream struct {
	Upstream
	proxy *httputil.ReverseProxy
}

// Gateway is an http.Handler proxying allowlisted requests
type Gateway struct {
	upstreams []upstream
	log       *slog.Logger
}

// New creates a gateway over upstreams
func New(upstreams []Upstream, log *slog.Logger) *Gateway {
	g := &Gateway{log: log}
	for _, u := range upstreams {
		g.upstreams = append(g.upstreams, upstream{Upstream: u, proxy: g.newProxy(u)})
	}
	return g
}

func (g *Gateway) newProxy(u Upstream) *httputil.ReverseProxy {
	target := u.Target
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if id := chimiddleware.GetReqID(pr.In.Context()); id != "" {
				pr.Out.Header.Set(chimiddleware.RequestIDHeader, id)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			g.log.Error("upstream transport error",
				"upstream", u.Name,
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			handlers.WriteError(w, http.StatusServiceUnavailable, "Transport error", g.log)
		},
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")

	for _, u := range g.upstreams {
		if path != u.Prefix && !strings.HasPrefix(path, u.Prefix+"/") {
			continue
		}

		if !allowed(u.Routes, path, r.Method) {
			g.log.Warn("gateway route forbidden", "upstream", u.Name, "method", r.Method, "path", r.URL.Path)
			handlers.WriteError(w, http.StatusForbidden, "Forbidden", g.log)
			return
		}

		u.proxy.ServeHTTP(w, r)
		return
	}

	handlers.WriteError(w, http.StatusNotFound, "Not found", g.log)
}

func allowed(routes []Route, path, method string) bool {
	for _, route := range routes {
		if matchPattern(route.Pattern, path) && slices.Contains(route.Methods, method) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}

	for i, segment := range want {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			if got[i] == "" {
				return false
			}
			continue
		}
		if segment != got[i] {
			return false
		}
	}
	return true
}
