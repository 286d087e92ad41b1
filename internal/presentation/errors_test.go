package presentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/food-orders-service/internal/domain"
)

func TestWriteError(t *testing.T) {
	testCases := map[string]struct {
		err            error
		production     bool
		expectedStatus int
		expectedBody   errorBody
	}{
		"validation": {
			err:            domain.NewValidationError("order must contain at least one item"),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   errorBody{Error: "order must contain at least one item"},
		},
		"invalid transition carries states": {
			err:            &domain.InvalidTransitionError{Current: domain.StatusDelivered, Requested: domain.StatusCancelled},
			expectedStatus: http.StatusBadRequest,
			expectedBody: errorBody{
				Error:           (&domain.InvalidTransitionError{Current: domain.StatusDelivered, Requested: domain.StatusCancelled}).Error(),
				CurrentStatus:   domain.StatusDelivered,
				RequestedStatus: domain.StatusCancelled,
			},
		},
		"invalid signature": {
			err:            domain.ErrInvalidSignature,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   errorBody{Error: domain.ErrInvalidSignature.Error()},
		},
		"wrapped not delivered": {
			err:            fmt.Errorf("rate: %w", domain.ErrNotDelivered),
			expectedStatus: http.StatusBadRequest,
			expectedBody:   errorBody{Error: "rate: " + domain.ErrNotDelivered.Error()},
		},
		"not found": {
			err:            &domain.NotFoundError{Resource: "order", ID: "42"},
			expectedStatus: http.StatusNotFound,
			expectedBody:   errorBody{Error: "order 42 not found"},
		},
		"forbidden": {
			err:            &domain.AuthorizationError{Message: "nope"},
			expectedStatus: http.StatusForbidden,
			expectedBody:   errorBody{Error: "nope"},
		},
		"conflict": {
			err:            &domain.ConcurrencyConflictError{OrderID: "42"},
			expectedStatus: http.StatusConflict,
			expectedBody:   errorBody{Error: "order was modified concurrently, reload and retry", Retryable: true},
		},
		"retryable gateway": {
			err:            &domain.PaymentGatewayError{Op: domain.OpVerifySignature, Retryable: true, Err: errors.New("timeout")},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   errorBody{Error: "payment gateway unavailable, retry later", Retryable: true},
		},
		"internal with detail in development": {
			err:            errors.New("pool exhausted"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   errorBody{Error: "internal server error", Detail: "pool exhausted"},
		},
		"internal hidden in production": {
			err:            errors.New("pool exhausted"),
			production:     true,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   errorBody{Error: "internal server error"},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			h := &OrdersHandler{production: tc.production}
			rec := httptest.NewRecorder()
			h.writeError(rec, httptest.NewRequest(http.MethodGet, "/orders", nil), tc.err)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			var got errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tc.expectedBody, got)
		})
	}
}
