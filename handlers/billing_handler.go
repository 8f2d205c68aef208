package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	paddle "github.com/PaddleHQ/paddle-go-sdk"

	"matSideAPI/internal/pricing"
	"matSideAPI/internal/user"
	"matSideAPI/middleware"
	"matSideAPI/services"
)

type BillingHandler struct {
	billingService *services.BillingService
	userService    *services.UserService
}

func NewBillingHandler(billingService *services.BillingService, userService *services.UserService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		userService:    userService,
	}
}

func (h *BillingHandler) QuoteSchoolPrice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	schoolID, err := uuid.Parse(mux.Vars(r)["schoolID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid school id")
		return
	}

	quote, err := h.billingService.QuoteSchoolPrice(ctx, schoolID)
	if err != nil {
		if respondWithPricingError(w, err) {
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, quote)
}

func (h *BillingHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	schoolID, err := uuid.Parse(mux.Vars(r)["schoolID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid school id")
		return
	}

	resp, err := h.billingService.Subscribe(ctx, clerkID, schoolID)
	if err != nil {
		if respondWithPricingError(w, err) {
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, resp)
}

func (h *BillingHandler) GetMySubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	subs, err := h.billingService.GetMySubscriptions(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, subs)
}

func (h *BillingHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	subscriptionID, err := uuid.Parse(mux.Vars(r)["subscriptionID"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid subscription id")
		return
	}

	if err := h.billingService.CancelSubscription(ctx, clerkID, subscriptionID); err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Subscription canceled"})
}

func (h *BillingHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	policy, err := h.billingService.CurrentPolicy(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, policy)
}

func (h *BillingHandler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !h.requireAdmin(ctx, w) {
		return
	}

	var patch pricing.PolicyPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	policy, err := h.billingService.UpdatePolicy(ctx, patch)
	if err != nil {
		if respondWithPricingError(w, err) {
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, policy)
}

// requireAdmin writes the error response itself and returns false when the
// caller is not a platform admin.
func (h *BillingHandler) requireAdmin(ctx context.Context, w http.ResponseWriter) bool {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return false
	}

	u, err := h.userService.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "User not found")
		return false
	}
	if u.Role != user.RoleAdmin {
		respondWithError(w, http.StatusForbidden, "Admin access required")
		return false
	}
	return true
}

// paddleSubscriptionEvent is the slice of a subscription.* webhook payload we
// act on. subscription.created carries the originating transaction id, which
// is what our rows are keyed by until the subscription id gets recorded.
type paddleSubscriptionEvent struct {
	Data struct {
		ID            string `json:"id"`
		TransactionID string `json:"transaction_id"`
	} `json:"data"`
}

func (h *BillingHandler) PaddleWebhookHandler(w http.ResponseWriter, r *http.Request) {
	secret := os.Getenv("PADDLE_SECRET_KEY")
	if secret == "" {
		log.Println("PADDLE_SECRET_KEY missing")
		http.Error(w, "Configuration Error", http.StatusInternalServerError)
		return
	}

	verifier := paddle.NewWebhookVerifier(secret)

	valid, err := verifier.Verify(r)
	if err != nil {
		http.Error(w, "Verification failed", http.StatusInternalServerError)
		return
	}
	if !valid {
		http.Error(w, "Invalid signature", http.StatusForbidden)
		return
	}

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Unable to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	type WebhookPartial struct {
		EventID   string               `json:"event_id"`
		EventType paddle.EventTypeName `json:"event_type"`
	}

	var webhook WebhookPartial
	if err := json.Unmarshal(bodyBytes, &webhook); err != nil {
		http.Error(w, "Unable to parse JSON", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	entityID := webhook.EventID

	switch webhook.EventType {

	case paddle.EventTypeNameTransactionPaid:
		type TransactionEvent struct {
			Data paddle.Transaction `json:"data"`
		}

		var fullEvent TransactionEvent
		if err := json.Unmarshal(bodyBytes, &fullEvent); err != nil {
			log.Printf("Error parsing transaction: %v", err)
			break
		}

		entityID = fullEvent.Data.ID
		if err := h.billingService.ActivateSubscription(ctx, fullEvent.Data.ID, ""); err != nil {
			log.Printf("Error activating subscription for %s: %v", fullEvent.Data.ID, err)
		}

	case paddle.EventTypeNameSubscriptionCreated:
		var fullEvent paddleSubscriptionEvent
		if err := json.Unmarshal(bodyBytes, &fullEvent); err != nil {
			log.Printf("Error parsing subscription: %v", err)
			break
		}

		entityID = fullEvent.Data.ID
		if err := h.billingService.ActivateSubscription(ctx, fullEvent.Data.TransactionID, fullEvent.Data.ID); err != nil {
			log.Printf("Error activating subscription %s: %v", fullEvent.Data.ID, err)
		}

	case paddle.EventTypeNameSubscriptionCanceled:
		var fullEvent paddleSubscriptionEvent
		if err := json.Unmarshal(bodyBytes, &fullEvent); err != nil {
			log.Printf("Error parsing subscription: %v", err)
			break
		}

		entityID = fullEvent.Data.ID
		if err := h.billingService.DeactivateSubscription(ctx, fullEvent.Data.ID); err != nil {
			log.Printf("Error deactivating subscription %s: %v", fullEvent.Data.ID, err)
		}

	default:
		log.Printf("Unhandled Paddle event type: %s", webhook.EventType)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf(`{"ID": "%s"}`, entityID)))
}

func (h *BillingHandler) PaymentSuccessPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `
	<!DOCTYPE html>
	<html>
	<head>
		<title>Payment Successful</title>
		<meta name="viewport" content="width=device-width, initial-scale=1">
		<style>
			body { background-color: #0F1115; color: white; font-family: sans-serif; text-align: center; padding: 50px 20px; }
			h1 { color: #2563EB; }
			p { color: #888; }
			.card { background: #1A1D23; padding: 30px; border-radius: 15px; max-width: 400px; margin: 0 auto; }
		</style>
	</head>
	<body>
		<div class="card">
			<h1>Payment Successful!</h1>
			<p>Your MatSide membership is confirmed.</p>
			<p>You can now close this window and return to the app.</p>
		</div>
	</body>
	</html>
	`
	fmt.Fprint(w, html)
}
