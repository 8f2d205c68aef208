package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matSideAPI/internal/pricing"
)

func TestPaddleWebhookFailsWithoutSecret(t *testing.T) {
	os.Unsetenv("PADDLE_SECRET_KEY")

	handler := NewBillingHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paddle", nil)
	rr := httptest.NewRecorder()

	handler.PaddleWebhookHandler(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestPaddleSubscriptionEventCarriesBothIDs(t *testing.T) {
	// subscription.created links the new subscription to the transaction the
	// athlete paid; that link is what activation is keyed by.
	body := []byte(`{
		"event_id": "evt_123",
		"event_type": "subscription.created",
		"data": {
			"id": "sub_01h04vsc0qhwtsbsxh3422wjs4",
			"status": "active",
			"transaction_id": "txn_01h04vsbtsbsxh3422wjs4aa"
		}
	}`)

	var ev paddleSubscriptionEvent
	require.NoError(t, json.Unmarshal(body, &ev))
	assert.Equal(t, "sub_01h04vsc0qhwtsbsxh3422wjs4", ev.Data.ID)
	assert.Equal(t, "txn_01h04vsbtsbsxh3422wjs4aa", ev.Data.TransactionID)
}

func TestPaddleSubscriptionEventCanceledHasNoTransaction(t *testing.T) {
	body := []byte(`{
		"event_type": "subscription.canceled",
		"data": {"id": "sub_01h04vsc0qhwtsbsxh3422wjs4", "status": "canceled"}
	}`)

	var ev paddleSubscriptionEvent
	require.NoError(t, json.Unmarshal(body, &ev))
	assert.Equal(t, "sub_01h04vsc0qhwtsbsxh3422wjs4", ev.Data.ID)
	assert.Empty(t, ev.Data.TransactionID)
}

func TestPaymentSuccessPage(t *testing.T) {
	handler := NewBillingHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/payment-success", nil)
	rr := httptest.NewRecorder()

	handler.PaymentSuccessPage(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Payment Successful")
}

func TestRespondWithPricingErrorOutOfRange(t *testing.T) {
	rr := httptest.NewRecorder()

	handled := respondWithPricingError(rr, &pricing.OutOfRangeError{Price: 100, Min: 499, Max: 30000})
	require.True(t, handled)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, "price", payload["field"])
	assert.Equal(t, "out_of_range", payload["reason"])
	assert.Equal(t, float64(499), payload["min"])
	assert.Equal(t, float64(30000), payload["max"])
}

func TestRespondWithPricingErrorInvalidPolicy(t *testing.T) {
	rr := httptest.NewRecorder()

	err := &pricing.InvalidPolicyError{Fields: []pricing.FieldViolation{
		{Field: "minPrice", Reason: "must not exceed maxPrice"},
		{Field: "maxPrice", Reason: "must not be below minPrice"},
	}}
	handled := respondWithPricingError(rr, err)
	require.True(t, handled)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var payload struct {
		Violations []pricing.FieldViolation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Len(t, payload.Violations, 2)
}

func TestRespondWithPricingErrorPassesThroughOtherErrors(t *testing.T) {
	rr := httptest.NewRecorder()

	handled := respondWithPricingError(rr, assert.AnError)
	assert.False(t, handled)
	assert.Empty(t, rr.Body.String())
}
