package money

import (
	"encoding/json"
	"testing"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := FromFloat(100.10)
	b := FromFloat(0.20)

	sum := a.Add(b)
	if sum.String() != "100.30" {
		t.Errorf("Expected 100.30, got %s", sum.String())
	}

	diff := a.Sub(b)
	if diff.String() != "99.90" {
		t.Errorf("Expected 99.90, got %s", diff.String())
	}
}

func TestMoney_NoFloatDrift(t *testing.T) {
	// 0.1 added ten times must be exactly 1.00, which float64 cannot do.
	total := Zero
	tenth := FromFloat(0.1)
	for i := 0; i < 10; i++ {
		total = total.Add(tenth)
	}

	if !total.Equal(FromInt(1)) {
		t.Errorf("Expected exactly 1.00, got %s", total.String())
	}
}

func TestMoney_Division(t *testing.T) {
	total := FromInt(700)
	daily := total.DivInt(7)

	if daily.String() != "100.00" {
		t.Errorf("Expected 100.00, got %s", daily.String())
	}
}

func TestMoney_Comparisons(t *testing.T) {
	if !Zero.IsZero() {
		t.Error("Zero value should be zero")
	}
	if FromInt(-5).IsPositive() {
		t.Error("-5 should not be positive")
	}
	if !FromInt(-5).IsNegative() {
		t.Error("-5 should be negative")
	}
	if FromInt(3).Cmp(FromInt(4)) != -1 {
		t.Error("3 should compare less than 4")
	}
}

func TestMoney_Parse(t *testing.T) {
	m, err := Parse("1234.56")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.String() != "1234.56" {
		t.Errorf("Expected 1234.56, got %s", m.String())
	}

	if _, err := Parse("not-a-number"); err == nil {
		t.Error("Expected error for invalid input")
	}
}

func TestMoney_JSON(t *testing.T) {
	m := FromFloat(42.5)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"42.50"` {
		t.Errorf("Expected \"42.50\", got %s", data)
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Equal(m) {
		t.Errorf("Round-trip mismatch: %s != %s", back.String(), m.String())
	}
}
