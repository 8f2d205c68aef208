package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"matSideAPI/internal/pricing"
	"matSideAPI/internal/types/notification"
	"matSideAPI/internal/types/subscription"
)

// DefaultPolicy seeds the pricing_policy table on first boot: monthly prices
// between R$4.99 and R$300.00, 15% commission from R$10.00 up.
var DefaultPolicy = pricing.Policy{
	MinPrice:            499,
	MaxPrice:            30000,
	CommissionThreshold: 1000,
	CommissionRate:      15,
}

type BillingService struct {
	db            *pgxpool.Pool
	paddleClient  *paddle.SDK
	notifications *NotificationService
}

func NewBillingService(db *pgxpool.Pool, paddleClient *paddle.SDK, notifications *NotificationService) *BillingService {
	return &BillingService{db: db, paddleClient: paddleClient, notifications: notifications}
}

// SeedPolicy inserts the default pricing policy if the table is empty.
// Called once from main.go before the server starts taking traffic.
func (s *BillingService) SeedPolicy(ctx context.Context) error {
	query := `
	INSERT INTO pricing_policy (id, min_price, max_price, commission_threshold, commission_rate, updated_at)
	VALUES (1, $1, $2, $3, $4, NOW())
	ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.Exec(ctx, query,
		DefaultPolicy.MinPrice, DefaultPolicy.MaxPrice,
		DefaultPolicy.CommissionThreshold, DefaultPolicy.CommissionRate)
	if err != nil {
		return fmt.Errorf("failed to seed pricing policy: %w", err)
	}
	return nil
}

// CurrentPolicy loads the single active pricing policy row.
func (s *BillingService) CurrentPolicy(ctx context.Context) (pricing.Policy, error) {
	var policy pricing.Policy
	err := s.db.QueryRow(ctx,
		`SELECT min_price, max_price, commission_threshold, commission_rate, updated_at FROM pricing_policy WHERE id = 1`,
	).Scan(&policy.MinPrice, &policy.MaxPrice, &policy.CommissionThreshold, &policy.CommissionRate, &policy.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Policy{}, fmt.Errorf("pricing policy not seeded")
		}
		return pricing.Policy{}, fmt.Errorf("failed to load pricing policy: %w", err)
	}
	return policy, nil
}

// UpdatePolicy validates and persists an admin patch to the platform policy.
// Validation errors (pricing.InvalidPolicyError) list every violated field.
func (s *BillingService) UpdatePolicy(ctx context.Context, patch pricing.PolicyPatch) (pricing.Policy, error) {
	current, err := s.CurrentPolicy(ctx)
	if err != nil {
		return pricing.Policy{}, err
	}

	next, err := pricing.UpdatePolicy(current, patch)
	if err != nil {
		return pricing.Policy{}, err
	}

	query := `
	UPDATE pricing_policy
	SET min_price = $1, max_price = $2, commission_threshold = $3, commission_rate = $4, updated_at = NOW()
	WHERE id = 1
	RETURNING updated_at
	`
	err = s.db.QueryRow(ctx, query,
		next.MinPrice, next.MaxPrice, next.CommissionThreshold, next.CommissionRate,
	).Scan(&next.UpdatedAt)
	if err != nil {
		return pricing.Policy{}, fmt.Errorf("failed to update pricing policy: %w", err)
	}

	return next, nil
}

// QuoteSchoolPrice evaluates a school's monthly price against the current
// policy and returns the commission split shown on the subscription screen.
func (s *BillingService) QuoteSchoolPrice(ctx context.Context, schoolID uuid.UUID) (pricing.Quote, error) {
	var price int64
	err := s.db.QueryRow(ctx, `SELECT monthly_price FROM schools WHERE id = $1`, schoolID).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Quote{}, fmt.Errorf("school not found")
		}
		return pricing.Quote{}, fmt.Errorf("failed to load school price: %w", err)
	}

	policy, err := s.CurrentPolicy(ctx)
	if err != nil {
		return pricing.Quote{}, err
	}

	return pricing.Evaluate(policy, price)
}

// Subscribe creates a pending subscription row plus a Paddle transaction and
// hands the hosted checkout URL back to the app. Payment capture itself is
// Paddle's job; the webhook flips the row to active.
func (s *BillingService) Subscribe(ctx context.Context, clerkID string, schoolID uuid.UUID) (*subscription.SubscribeResponse, error) {
	athleteID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	quote, err := s.QuoteSchoolPrice(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	paddlePriceID := os.Getenv("PADDLE_MEMBERSHIP_PRICE_ID")
	if paddlePriceID == "" {
		return nil, fmt.Errorf("PADDLE_MEMBERSHIP_PRICE_ID is not configured")
	}

	successURL := "matside://payment-success"
	createReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{
			*paddle.NewCreateTransactionItemsCatalogItem(&paddle.CatalogItem{
				Quantity: 1,
				PriceID:  paddlePriceID,
			}),
		},
		CustomData: paddle.CustomData{
			"userId":   clerkID,
			"schoolId": schoolID.String(),
		},
		CollectionMode: paddle.PtrTo(paddle.CollectionModeAutomatic),
		Checkout: &paddle.TransactionCheckout{
			URL: &successURL,
		},
	}

	tx, err := s.paddleClient.CreateTransaction(ctx, createReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	query := `
	INSERT INTO subscriptions (id, athlete_id, school_id, paddle_transaction_id, price, commission_amount, net_amount, status, current_period_end, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err = s.db.Exec(ctx, query,
		uuid.New(), athleteID, schoolID, tx.ID,
		quote.Price, quote.CommissionAmount, quote.NetAmount,
		subscription.StatusPending, time.Now().AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to record subscription: %w", err)
	}

	paddleEnv := os.Getenv("PADDLE_CHECKOUT_HOST")
	if paddleEnv == "" {
		paddleEnv = "sandbox-checkout"
	}
	checkoutURL := fmt.Sprintf("https://%s.paddle.com/checkout/custom?_ptxn=%s", paddleEnv, tx.ID)

	return &subscription.SubscribeResponse{
		TransactionID: tx.ID,
		CheckoutURL:   checkoutURL,
	}, nil
}

// ActivateSubscription is driven by the transaction.paid and
// subscription.created webhooks. It marks the pending row active, extends the
// period, records the provider's subscription id when the event carries one
// and tells the athlete.
func (s *BillingService) ActivateSubscription(ctx context.Context, paddleTransactionID, paddleSubscriptionID string) error {
	var subID, athleteID uuid.UUID
	query := `
	UPDATE subscriptions
	SET status = $2,
	    paddle_subscription_id = COALESCE(NULLIF($3, ''), paddle_subscription_id),
	    current_period_end = NOW() + INTERVAL '1 month',
	    updated_at = NOW()
	WHERE paddle_transaction_id = $1
	RETURNING id, athlete_id
	`
	err := s.db.QueryRow(ctx, query, paddleTransactionID, subscription.StatusActive, paddleSubscriptionID).Scan(&subID, &athleteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("no subscription for transaction %s", paddleTransactionID)
		}
		return fmt.Errorf("failed to activate subscription: %w", err)
	}

	if err := s.notifications.Notify(ctx, athleteID, notification.TypeSubscription,
		"Subscription active", "Your school membership is now active",
		map[string]any{"subscriptionId": subID.String()}); err != nil {
		log.Printf("Billing: failed to notify athlete %s: %v", athleteID, err)
	}

	return nil
}

// DeactivateSubscription is driven by the subscription.canceled webhook
// (failed renewal, refund, dashboard cancel on Paddle's side). Keyed by the
// provider subscription id recorded at activation.
func (s *BillingService) DeactivateSubscription(ctx context.Context, paddleSubscriptionID string) error {
	var subID, athleteID uuid.UUID
	query := `
	UPDATE subscriptions
	SET status = $2, updated_at = NOW()
	WHERE paddle_subscription_id = $1 AND status != $2
	RETURNING id, athlete_id
	`
	err := s.db.QueryRow(ctx, query, paddleSubscriptionID, subscription.StatusCanceled).Scan(&subID, &athleteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("no active subscription for paddle subscription %s", paddleSubscriptionID)
		}
		return fmt.Errorf("failed to deactivate subscription: %w", err)
	}

	if err := s.notifications.Notify(ctx, athleteID, notification.TypeSubscription,
		"Subscription canceled", "Your school membership is no longer active",
		map[string]any{"subscriptionId": subID.String()}); err != nil {
		log.Printf("Billing: failed to notify athlete %s: %v", athleteID, err)
	}

	return nil
}

// CancelSubscription is athlete initiated. Paddle stops collecting on its
// side; locally the row just flips to canceled at the end of the period.
func (s *BillingService) CancelSubscription(ctx context.Context, clerkID string, subscriptionID uuid.UUID) error {
	athleteID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE subscriptions SET status = $3, updated_at = NOW() WHERE id = $1 AND athlete_id = $2`,
		subscriptionID, athleteID, subscription.StatusCanceled)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscription not found")
	}
	return nil
}

func (s *BillingService) GetMySubscriptions(ctx context.Context, clerkID string) ([]*subscription.Subscription, error) {
	athleteID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, athlete_id, school_id, paddle_transaction_id, COALESCE(paddle_subscription_id, ''), price, commission_amount, net_amount, status, current_period_end, created_at, updated_at
	FROM subscriptions
	WHERE athlete_id = $1
	ORDER BY created_at DESC
	`
	rows, err := s.db.Query(ctx, query, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		sub := &subscription.Subscription{}
		if err := rows.Scan(
			&sub.ID, &sub.AthleteID, &sub.SchoolID, &sub.PaddleTransactionID, &sub.PaddleSubscriptionID,
			&sub.Price, &sub.CommissionAmount, &sub.NetAmount,
			&sub.Status, &sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (s *BillingService) userIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}
