package presentation

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RaikyD/food-orders-service/internal/application"
	"github.com/RaikyD/food-orders-service/internal/auth"
	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/presentation/helpers"
)

type OrdersHandler struct {
	svc        *application.OrdersService
	production bool
}

func NewOrdersHandler(svc *application.OrdersService, production bool) *OrdersHandler {
	return &OrdersHandler{svc: svc, production: production}
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{id}", h.GetOrder)
	r.Put("/orders/{id}/status", h.UpdateStatus)
	r.Post("/orders/{id}/verify-payment", h.VerifyPayment)
	r.Post("/orders/{id}/rate", h.RateOrder)
}

func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body createOrderBody
	if err := helpers.DecodeJSON(r.Body, &body); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	res, err := h.svc.Create(r.Context(), p, body.toRequest())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, createOrderResponse{
		Order:        res.Order,
		PaymentOrder: res.PaymentOrder,
		Warning:      res.Warning,
	})
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, err := queryInt(q.Get("page"))
	if err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, err := queryInt(q.Get("limit"))
	if err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	res, err := h.svc.List(r.Context(), p, application.ListQuery{
		Status: domain.Status(q.Get("status")),
		Sort:   q.Get("sort"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	view, err := h.svc.Get(r.Context(), p, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, orderView{Order: view.Order, VendorInfo: view.Vendor})
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var body statusBody
	if err := helpers.DecodeJSON(r.Body, &body); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	o, err := h.svc.UpdateStatus(r.Context(), p, id, application.StatusUpdate{
		Status:   body.Status,
		Reason:   body.Reason,
		Location: body.Location,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, orderResponse{Order: o})
}

func (h *OrdersHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var body verifyPaymentBody
	if err := helpers.DecodeJSON(r.Body, &body); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	o, err := h.svc.VerifyPayment(r.Context(), p, id, application.VerifyPaymentRequest{
		RemoteOrderID: body.RemoteOrderID,
		PaymentID:     body.PaymentID,
		Signature:     body.Signature,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, orderResponse{Order: o})
}

func (h *OrdersHandler) RateOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var body rateBody
	if err := helpers.DecodeJSON(r.Body, &body); err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	o, err := h.svc.Rate(r.Context(), p, id, application.RateRequest{
		FoodRating:      body.FoodRating,
		FoodComment:     body.FoodComment,
		DeliveryRating:  body.DeliveryRating,
		DeliveryComment: body.DeliveryComment,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, orderResponse{Order: o})
}

func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		helpers.HttpError(w, http.StatusUnauthorized, "authentication required")
	}
	return p, ok
}

func orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid order id")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an optional positive integer; empty means zero (use the default).
func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
