package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/food-orders-service/internal/domain"
)

const (
	testSecret = "test-secret"
	testIssuer = "food-orders"
)

func signed(t *testing.T, secret string, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func claimsFor(sub string, role domain.Role, exp time.Time) Claims {
	return Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
}

func TestMiddleware_Handler(t *testing.T) {
	valid, err := IssueToken(testSecret, testIssuer, domain.Principal{ID: "cust-1", Role: domain.RoleCustomer}, time.Hour)
	require.NoError(t, err)

	testCases := map[string]struct {
		setup          func(r *http.Request)
		expectedStatus int
		expectedID     string
	}{
		"should accept bearer header": {
			setup:          func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) },
			expectedStatus: http.StatusOK,
			expectedID:     "cust-1",
		},
		"should accept token cookie": {
			setup:          func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: valid}) },
			expectedStatus: http.StatusOK,
			expectedID:     "cust-1",
		},
		"should reject missing token": {
			setup:          func(r *http.Request) {},
			expectedStatus: http.StatusUnauthorized,
		},
		"should reject malformed header": {
			setup:          func(r *http.Request) { r.Header.Set("Authorization", "Token "+valid) },
			expectedStatus: http.StatusUnauthorized,
		},
		"should reject wrong secret": {
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signed(t, "other", claimsFor("cust-1", domain.RoleCustomer, time.Now().Add(time.Hour)), jwt.SigningMethodHS256))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		"should reject expired token": {
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signed(t, testSecret, claimsFor("cust-1", domain.RoleCustomer, time.Now().Add(-time.Hour)), jwt.SigningMethodHS256))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		"should reject other algorithms": {
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signed(t, testSecret, claimsFor("cust-1", domain.RoleCustomer, time.Now().Add(time.Hour)), jwt.SigningMethodHS512))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		"should reject unknown role": {
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signed(t, testSecret, claimsFor("cust-1", "chef", time.Now().Add(time.Hour)), jwt.SigningMethodHS256))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		"should reject missing subject": {
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signed(t, testSecret, claimsFor("", domain.RoleAdmin, time.Now().Add(time.Hour)), jwt.SigningMethodHS256))
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var got domain.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			NewMiddleware(testSecret, testIssuer).Handler(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			assert.Equal(t, tc.expectedID, got.ID)
		})
	}
}

func TestPrincipalFromContext_Missing(t *testing.T) {
	_, ok := PrincipalFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
