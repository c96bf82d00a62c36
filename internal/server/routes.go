package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/gateway"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/handlers"
)

// OrderRoutes mounts the order service API
func OrderRoutes(h *handlers.OrderHandler) func(r chi.Router) {
	return func(r chi.Router) {
		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Get("/search", h.SearchOrders)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}", h.UpdateOrder)
			r.Delete("/{id}", h.DeleteOrder)
		})
	}
}

// ProductRoutes mounts the product service API
func ProductRoutes(h *handlers.ProductHandler) func(r chi.Router) {
	return func(r chi.Router) {
		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/search", h.SearchProducts)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	}
}

// GatewayRoutes sends every /api request through the allowlisting proxy
func GatewayRoutes(gw *gateway.Gateway) func(r chi.Router) {
	return func(r chi.Router) {
		r.Handle("/api", gw)
		r.Handle("/api/*", gw)
	}
}
