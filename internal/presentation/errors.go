package presentation

import (
	"errors"
	"net/http"

	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/logger"
	"github.com/RaikyD/food-orders-service/internal/presentation/helpers"
)

type errorBody struct {
	Error           string        `json:"error"`
	CurrentStatus   domain.Status `json:"currentStatus,omitempty"`
	RequestedStatus domain.Status `json:"requestedStatus,omitempty"`
	Retryable       bool          `json:"retryable,omitempty"`
	Detail          string        `json:"detail,omitempty"`
}

// writeError maps service errors onto HTTP statuses. Unclassified errors are
// reported as 500 and only carry detail outside production.
func (h *OrdersHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *domain.ValidationError
		ite *domain.InvalidTransitionError
		nf  *domain.NotFoundError
		ae  *domain.AuthorizationError
		cc  *domain.ConcurrencyConflictError
		ge  *domain.PaymentGatewayError
	)

	switch {
	case errors.As(err, &ve):
		helpers.WriteJSON(w, http.StatusBadRequest, errorBody{Error: ve.Error()})
	case errors.As(err, &ite):
		helpers.WriteJSON(w, http.StatusBadRequest, errorBody{
			Error:           ite.Error(),
			CurrentStatus:   ite.Current,
			RequestedStatus: ite.Requested,
		})
	case errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrNotDelivered),
		errors.Is(err, domain.ErrAlreadyRated):
		helpers.WriteJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.As(err, &nf):
		helpers.WriteJSON(w, http.StatusNotFound, errorBody{Error: nf.Error()})
	case errors.As(err, &ae):
		helpers.WriteJSON(w, http.StatusForbidden, errorBody{Error: ae.Error()})
	case errors.As(err, &cc):
		helpers.WriteJSON(w, http.StatusConflict, errorBody{Error: "order was modified concurrently, reload and retry", Retryable: true})
	case errors.As(err, &ge) && ge.Retryable:
		logger.Warn("payment gateway unavailable", "path", r.URL.Path, "op", ge.Op, "err", ge.Err)
		helpers.WriteJSON(w, http.StatusServiceUnavailable, errorBody{Error: "payment gateway unavailable, retry later", Retryable: true})
	default:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		body := errorBody{Error: "internal server error"}
		if !h.production {
			body.Detail = err.Error()
		}
		helpers.WriteJSON(w, http.StatusInternalServerError, body)
	}
}
