package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Lixing-Zhang/ecommerce-backend/internal/models"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/repository"
	"github.com/Lixing-Zhang/ecommerce-backend/internal/service"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrderResponse is returned by POST /api/orders
type CreateOrderResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// statusForKind maps a creation failure onto the HTTP status the client sees
func statusForKind(kind service.Kind) int {
	switch kind {
	case service.KindMalformedInput,
		service.KindInvalidItem,
		service.KindProductNotFound,
		service.KindValidationFailed,
		service.KindRemoteClientError,
		service.KindRemoteDecode:
		return http.StatusBadRequest
	case service.KindRemoteRedirect:
		return http.StatusBadGateway
	case service.KindRemoteTransport:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	orderID, err := h.orderService.CreateOrderFromJSON(r.Context(), r.Body)
	if err != nil {
		h.writeCreateError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, CreateOrderResponse{
		Message: "Order created successfully",
		OrderID: orderID,
	}, h.log)
}

func (h *OrderHandler) writeCreateError(w http.ResponseWriter, err error) {
	var ce *service.CreateError
	if !errors.As(err, &ce) {
		h.log.Error("unexpected order creation failure", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	status := statusForKind(ce.Kind)
	message := ce.Message
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}

	WriteJSON(w, status, ErrorResponse{
		Error:      message,
		Kind:       ce.Kind.String(),
		Violations: ce.Violations,
	}, h.log)
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, orders, h.log)
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, order, h.log)
}

// SearchOrders handles GET /api/orders/search?productId=
func (h *OrderHandler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("productId")
	if productID == "" {
		WriteError(w, http.StatusBadRequest, "productId query parameter is required", h.log)
		return
	}

	orders, err := h.orderService.SearchByProductID(r.Context(), productID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, orders, h.log)
}

// UpdateOrder handles PUT /api/orders/{id}; only the delivery address can change
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log.Warn("failed to decode order update", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	if err := h.orderService.UpdateDeliveryAddress(r.Context(), chi.URLParam(r, "id"), req.DeliveryAddress); err != nil {
		h.writeError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "Order updated successfully"}, h.log)
}

// DeleteOrder handles DELETE /api/orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orderService.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) writeError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrInvalidID):
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.log)
	case errors.Is(err, repository.ErrOrderNotFound):
		WriteError(w, http.StatusNotFound, "Order not found", h.log)
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:      "Validation failed",
			Violations: verr.Violations,
		}, h.log)
	default:
		h.log.Error("order request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
	}
}
