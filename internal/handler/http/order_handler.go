package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/campus-eats/internal/auth"
	"github.com/vasiliy-maslov/campus-eats/internal/order"
)

type OrderItemRequest struct {
	MenuItemID string `json:"menuItemId" validate:"required,uuid"`
	Quantity   int    `json:"quantity" validate:"required,gt=0,lte=1000"`
}

type CreateOrderRequest struct {
	VendorID       string             `json:"vendorId" validate:"required,uuid"`
	CustomerName   string             `json:"customerName" validate:"omitempty,max=100"`
	CustomerPhone  string             `json:"customerPhone" validate:"omitempty,max=32"`
	CustomerRoomNo string             `json:"customerRoomNo" validate:"omitempty,max=32"`
	Items          []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateOrderStatusRequest leaves status and ETA checks to the order
// service so they fail with the order error codes.
type UpdateOrderStatusRequest struct {
	Status     string  `json:"status" validate:"required"`
	EtaMinutes *int    `json:"etaMinutes,omitempty"`
	VendorNote *string `json:"vendorNote,omitempty" validate:"omitempty,max=500"`
}

type OrderHandler struct {
	service  order.Service
	validate *validator.Validate
}

func NewOrderHandler(service order.Service) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/orders", h.handleCreateOrder)
		r.Get("/orders/{id}", h.handleGetOrder)
		r.Get("/users/me/orders", h.handleListMyOrders)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleVendor, auth.RoleAdmin))
			r.Get("/vendor/orders", h.handleListVendorOrders)
			r.Patch("/vendor/orders/{id}", h.handleUpdateOrderStatus)
		})
	})
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	in := order.CreateOrderInput{
		VendorID:       uuid.FromStringOrNil(requestPayload.VendorID),
		CustomerName:   requestPayload.CustomerName,
		CustomerPhone:  requestPayload.CustomerPhone,
		CustomerRoomNo: requestPayload.CustomerRoomNo,
		Items:          make([]order.LineInput, 0, len(requestPayload.Items)),
	}
	for _, item := range requestPayload.Items {
		in.Items = append(in.Items, order.LineInput{
			MenuItemID: uuid.FromStringOrNil(item.MenuItemID),
			Quantity:   item.Quantity,
		})
	}

	created, err := h.service.CreateOrder(r.Context(), actorFrom(r), in)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to create order")
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	detail, err := h.service.GetOrder(r.Context(), actorFrom(r), orderID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

func (h *OrderHandler) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListUserOrders(r.Context(), actorFrom(r))
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleListVendorOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	vendorID := uuid.Nil
	if raw := query.Get("vendorId"); raw != "" {
		id, err := uuid.FromString(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid vendorId parameter")
			return
		}
		vendorID = id
	}

	var statuses []string
	for _, raw := range query["status"] {
		statuses = append(statuses, strings.Split(raw, ",")...)
	}

	orders, err := h.service.ListVendorOrders(r.Context(), actorFrom(r), vendorID, statuses)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list vendor orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var requestPayload UpdateOrderStatusRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), actorFrom(r), orderID, order.Transition{
		Status:     requestPayload.Status,
		EtaMinutes: requestPayload.EtaMinutes,
		VendorNote: requestPayload.VendorNote,
	})
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to update order status")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}
