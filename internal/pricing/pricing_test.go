package pricing

import (
	"errors"
	"testing"
	"time"
)

func testPolicy() Policy {
	return Policy{
		MinPrice:            499,
		MaxPrice:            3000,
		CommissionThreshold: 1000,
		CommissionRate:      15,
	}
}

func TestEvaluateBelowThreshold(t *testing.T) {
	quote, err := Evaluate(testPolicy(), 999)
	if err != nil {
		t.Fatalf("Evaluate(999) failed: %v", err)
	}
	if quote.CommissionAmount != 0 {
		t.Errorf("expected zero commission below threshold, got %d", quote.CommissionAmount)
	}
	if quote.NetAmount != 999 {
		t.Errorf("expected net 999, got %d", quote.NetAmount)
	}
}

func TestEvaluateAtAndAboveThreshold(t *testing.T) {
	policy := testPolicy()

	quote, err := Evaluate(policy, 1500)
	if err != nil {
		t.Fatalf("Evaluate(1500) failed: %v", err)
	}
	if quote.CommissionAmount != 225 {
		t.Errorf("expected commission 225, got %d", quote.CommissionAmount)
	}
	if quote.NetAmount != 1275 {
		t.Errorf("expected net 1275, got %d", quote.NetAmount)
	}

	// Exactly at the threshold the commission applies.
	quote, err = Evaluate(policy, 1000)
	if err != nil {
		t.Fatalf("Evaluate(1000) failed: %v", err)
	}
	if quote.CommissionAmount != 150 {
		t.Errorf("expected commission 150 at threshold, got %d", quote.CommissionAmount)
	}
}

func TestEvaluateSplitIsExact(t *testing.T) {
	policy := testPolicy()
	for price := policy.MinPrice; price <= policy.MaxPrice; price++ {
		quote, err := Evaluate(policy, price)
		if err != nil {
			t.Fatalf("Evaluate(%d) failed: %v", price, err)
		}
		if quote.CommissionAmount+quote.NetAmount != price {
			t.Fatalf("price %d: commission %d + net %d != price",
				price, quote.CommissionAmount, quote.NetAmount)
		}
		if quote.NetAmount < 0 || quote.CommissionAmount < 0 {
			t.Fatalf("price %d: negative split %+v", price, quote)
		}
	}
}

// Net grows with price on each side of the commission threshold. Crossing
// the threshold itself makes the commission kick in, so the net can step
// down there; the regions are checked separately.
func TestEvaluateNetMonotonicWithinRegions(t *testing.T) {
	policy := testPolicy()

	prevNet := int64(-1)
	for price := policy.MinPrice; price < policy.CommissionThreshold; price++ {
		quote, err := Evaluate(policy, price)
		if err != nil {
			t.Fatalf("Evaluate(%d) failed: %v", price, err)
		}
		if quote.NetAmount < prevNet {
			t.Fatalf("net decreased from %d to %d at price %d (below threshold)", prevNet, quote.NetAmount, price)
		}
		prevNet = quote.NetAmount
	}

	prevNet = int64(-1)
	for price := policy.CommissionThreshold; price <= policy.MaxPrice; price++ {
		quote, err := Evaluate(policy, price)
		if err != nil {
			t.Fatalf("Evaluate(%d) failed: %v", price, err)
		}
		if quote.NetAmount < prevNet {
			t.Fatalf("net decreased from %d to %d at price %d (at/above threshold)", prevNet, quote.NetAmount, price)
		}
		prevNet = quote.NetAmount
	}
}

func TestEvaluateNetStepsDownAtThreshold(t *testing.T) {
	policy := testPolicy()

	below, err := Evaluate(policy, policy.CommissionThreshold-1)
	if err != nil {
		t.Fatalf("Evaluate below threshold failed: %v", err)
	}
	at, err := Evaluate(policy, policy.CommissionThreshold)
	if err != nil {
		t.Fatalf("Evaluate at threshold failed: %v", err)
	}

	// 999 keeps all 999; 1000 pays 15% and nets 850. The step down is the
	// whole commission minus the one-unit price increase.
	if below.NetAmount != 999 {
		t.Errorf("expected net 999 just below the threshold, got %d", below.NetAmount)
	}
	if at.NetAmount != 850 {
		t.Errorf("expected net 850 at the threshold, got %d", at.NetAmount)
	}
	if drop := below.NetAmount - at.NetAmount; drop != at.CommissionAmount-1 {
		t.Errorf("expected the step to equal the commission minus one, got %d (commission %d)", drop, at.CommissionAmount)
	}
}

func TestEvaluateFloorsTruncate(t *testing.T) {
	policy := Policy{MinPrice: 0, MaxPrice: 10000, CommissionThreshold: 0, CommissionRate: 15}

	// 15% of 101 is 15.15, which must floor to 15.
	quote, err := Evaluate(policy, 101)
	if err != nil {
		t.Fatalf("Evaluate(101) failed: %v", err)
	}
	if quote.CommissionAmount != 15 {
		t.Errorf("expected floored commission 15, got %d", quote.CommissionAmount)
	}
	if quote.NetAmount != 86 {
		t.Errorf("expected net 86, got %d", quote.NetAmount)
	}
}

func TestEvaluateOutOfRange(t *testing.T) {
	policy := testPolicy()

	for _, price := range []int64{0, 498, 3001, 99999} {
		_, err := Evaluate(policy, price)
		if err == nil {
			t.Fatalf("Evaluate(%d) should have failed", price)
		}
		var oor *OutOfRangeError
		if !errors.As(err, &oor) {
			t.Fatalf("Evaluate(%d): expected OutOfRangeError, got %T", price, err)
		}
		if oor.Min != policy.MinPrice || oor.Max != policy.MaxPrice {
			t.Errorf("error should carry the policy bounds, got %+v", oor)
		}
		if oor.Price != price {
			t.Errorf("error should carry the rejected price, got %d", oor.Price)
		}
	}
}

func TestEvaluateZeroRate(t *testing.T) {
	policy := testPolicy()
	policy.CommissionRate = 0

	quote, err := Evaluate(policy, 2000)
	if err != nil {
		t.Fatalf("Evaluate(2000) failed: %v", err)
	}
	if quote.CommissionAmount != 0 || quote.NetAmount != 2000 {
		t.Errorf("zero rate must take nothing, got %+v", quote)
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestUpdatePolicyAppliesPatch(t *testing.T) {
	current := testPolicy()

	next, err := UpdatePolicy(current, PolicyPatch{
		MaxPrice:       int64Ptr(5000),
		CommissionRate: int64Ptr(20),
	})
	if err != nil {
		t.Fatalf("UpdatePolicy failed: %v", err)
	}
	if next.MaxPrice != 5000 || next.CommissionRate != 20 {
		t.Errorf("patch not applied: %+v", next)
	}
	if next.MinPrice != current.MinPrice || next.CommissionThreshold != current.CommissionThreshold {
		t.Errorf("unpatched fields changed: %+v", next)
	}
}

func TestUpdatePolicyDoesNotMutateInput(t *testing.T) {
	current := testPolicy()
	current.UpdatedAt = time.Now()
	snapshot := current

	_, err := UpdatePolicy(current, PolicyPatch{MinPrice: int64Ptr(600)})
	if err != nil {
		t.Fatalf("UpdatePolicy failed: %v", err)
	}
	if current != snapshot {
		t.Errorf("input policy was mutated: %+v", current)
	}
}

func TestUpdatePolicyReportsAllViolations(t *testing.T) {
	current := testPolicy()

	_, err := UpdatePolicy(current, PolicyPatch{
		MinPrice: int64Ptr(10),
		MaxPrice: int64Ptr(5),
	})
	if err == nil {
		t.Fatal("expected InvalidPolicyError")
	}
	var invalid *InvalidPolicyError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidPolicyError, got %T", err)
	}

	named := map[string]bool{}
	for _, f := range invalid.Fields {
		named[f.Field] = true
	}
	if !named["minPrice"] || !named["maxPrice"] {
		t.Errorf("both minPrice and maxPrice must be reported, got %+v", invalid.Fields)
	}
}

func TestUpdatePolicyRejectsBadRate(t *testing.T) {
	for _, rate := range []int64{-1, 101, 1000} {
		_, err := UpdatePolicy(testPolicy(), PolicyPatch{CommissionRate: int64Ptr(rate)})
		if err == nil {
			t.Errorf("rate %d should be rejected", rate)
			continue
		}
		var invalid *InvalidPolicyError
		if !errors.As(err, &invalid) {
			t.Errorf("rate %d: expected InvalidPolicyError, got %T", rate, err)
		}
	}
}

func TestUpdatePolicyRejectsNegativeAmounts(t *testing.T) {
	_, err := UpdatePolicy(testPolicy(), PolicyPatch{
		MinPrice:            int64Ptr(-1),
		CommissionThreshold: int64Ptr(-50),
	})
	if err == nil {
		t.Fatal("expected InvalidPolicyError")
	}
	var invalid *InvalidPolicyError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidPolicyError, got %T", err)
	}
	named := map[string]bool{}
	for _, f := range invalid.Fields {
		named[f.Field] = true
	}
	if !named["minPrice"] || !named["commissionThreshold"] {
		t.Errorf("expected minPrice and commissionThreshold violations, got %+v", invalid.Fields)
	}
}
