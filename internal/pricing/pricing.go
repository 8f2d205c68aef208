package pricing

import (
	"fmt"
	"strings"
	"time"
)

// Policy holds the platform-wide bounds and commission parameters that govern
// school subscription prices. All amounts are integer minor units (cents).
// There is a single active policy row, seeded on first boot and changed only
// through an admin update.
type Policy struct {
	MinPrice            int64     `json:"minPrice" db:"min_price"`
	MaxPrice            int64     `json:"maxPrice" db:"max_price"`
	CommissionThreshold int64     `json:"commissionThreshold" db:"commission_threshold"`
	CommissionRate      int64     `json:"commissionRate" db:"commission_rate"`
	UpdatedAt           time.Time `json:"updatedAt" db:"updated_at"`
}

// PolicyPatch is a partial policy update. Nil fields keep the current value.
type PolicyPatch struct {
	MinPrice            *int64 `json:"minPrice"`
	MaxPrice            *int64 `json:"maxPrice"`
	CommissionThreshold *int64 `json:"commissionThreshold"`
	CommissionRate      *int64 `json:"commissionRate"`
}

// Quote is the commission split for one evaluated price. It is recomputed on
// every request and never persisted on its own.
type Quote struct {
	Price            int64 `json:"price"`
	CommissionAmount int64 `json:"commissionAmount"`
	NetAmount        int64 `json:"netAmount"`
}

// OutOfRangeError means the evaluated price falls outside the policy bounds.
// Handlers surface it as a validation error, not a server failure.
type OutOfRangeError struct {
	Price int64
	Min   int64
	Max   int64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("price %d out of range [%d, %d]", e.Price, e.Min, e.Max)
}

// InvalidPolicyError collects every field violation of a policy update so the
// client can render all validation messages at once.
type InvalidPolicyError struct {
	Fields []FieldViolation
}

type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *InvalidPolicyError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return "invalid policy: " + strings.Join(parts, "; ")
}

// Evaluate validates price against the policy bounds and computes the
// commission split. Prices at or above the commission threshold pay
// floor(price * rate / 100); below it the platform takes nothing.
// Integer arithmetic only, so no unit is ever lost to rounding.
func Evaluate(policy Policy, price int64) (Quote, error) {
	if price < policy.MinPrice || price > policy.MaxPrice {
		return Quote{}, &OutOfRangeError{Price: price, Min: policy.MinPrice, Max: policy.MaxPrice}
	}

	var commission int64
	if price >= policy.CommissionThreshold {
		commission = price * policy.CommissionRate / 100
	}

	return Quote{
		Price:            price,
		CommissionAmount: commission,
		NetAmount:        price - commission,
	}, nil
}

// UpdatePolicy applies patch over current and validates the result. The input
// policy is not modified. On violation it returns an InvalidPolicyError naming
// every bad field, not just the first one found.
func UpdatePolicy(current Policy, patch PolicyPatch) (Policy, error) {
	next := current
	if patch.MinPrice != nil {
		next.MinPrice = *patch.MinPrice
	}
	if patch.MaxPrice != nil {
		next.MaxPrice = *patch.MaxPrice
	}
	if patch.CommissionThreshold != nil {
		next.CommissionThreshold = *patch.CommissionThreshold
	}
	if patch.CommissionRate != nil {
		next.CommissionRate = *patch.CommissionRate
	}

	var violations []FieldViolation
	if next.MinPrice < 0 {
		violations = append(violations, FieldViolation{Field: "minPrice", Reason: "must be >= 0"})
	}
	if next.MaxPrice < 0 {
		violations = append(violations, FieldViolation{Field: "maxPrice", Reason: "must be >= 0"})
	}
	if next.MinPrice > next.MaxPrice {
		violations = append(violations,
			FieldViolation{Field: "minPrice", Reason: "must be <= maxPrice"},
			FieldViolation{Field: "maxPrice", Reason: "must be >= minPrice"},
		)
	}
	if next.CommissionThreshold < 0 {
		violations = append(violations, FieldViolation{Field: "commissionThreshold", Reason: "must be >= 0"})
	}
	if next.CommissionRate < 0 || next.CommissionRate > 100 {
		violations = append(violations, FieldViolation{Field: "commissionRate", Reason: "must be between 0 and 100"})
	}

	if len(violations) > 0 {
		return Policy{}, &InvalidPolicyError{Fields: violations}
	}

	return next, nil
}
