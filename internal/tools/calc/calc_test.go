package calc

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func execCalc(t *testing.T, expr string) string {
	t.Helper()
	params, _ := json.Marshal(map[string]string{"expr": expr})
	result, err := CalculateTool{}.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result for %q: %s", expr, result.Content)
	}
	return result.Content
}

func TestCalculate_BasicArithmetic(t *testing.T) {
	if got := execCalc(t, "2 + 3 * 4"); got != "14" {
		t.Fatalf("got %q, want 14", got)
	}
	if got := execCalc(t, "(2 + 3) * 4"); got != "20" {
		t.Fatalf("got %q, want 20", got)
	}
	if got := execCalc(t, "2 ^ 10"); got != "1024" {
		t.Fatalf("got %q, want 1024", got)
	}
}

func TestCalculate_Functions(t *testing.T) {
	if got := execCalc(t, "sqrt(16)"); got != "4" {
		t.Fatalf("got %q, want 4", got)
	}
}

func TestCalculate_RefusesFinancialKeywords(t *testing.T) {
	params, _ := json.Marshal(map[string]string{"expr": "本金100000元的IRR"})
	result, err := CalculateTool{}.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected refusal for financial keyword")
	}
	if !strings.Contains(result.Content, "calculateIRR") && !strings.Contains(result.Content, "calculateAmortization") {
		t.Fatalf("expected guidance toward a specialised tool, got %q", result.Content)
	}
}

func TestCalculate_DivisionByZero(t *testing.T) {
	params, _ := json.Marshal(map[string]string{"expr": "1/0"})
	result, err := CalculateTool{}.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for division by zero")
	}
}

func TestAmortizationTool_MatchesKnownSchedule(t *testing.T) {
	params, _ := json.Marshal(map[string]any{"principal": 100000.0, "annualRate": 0.05, "termYears": 10.0})
	result, err := AmortizationTool{}.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "1060.66") {
		t.Fatalf("expected monthly payment ~1060.66, got %q", result.Content)
	}
}

func TestAmortizationTool_ValidatesBounds(t *testing.T) {
	params, _ := json.Marshal(map[string]any{"principal": -1.0, "annualRate": 0.05, "termYears": 10.0})
	result, err := AmortizationTool{}.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error for non-positive principal")
	}
}

func TestIRRTool_ConvergesOnSimpleSeries(t *testing.T) {
	params, _ := json.Marshal(map[string]string{"cashflows": "-1000,400,400,400,400"})
	result, err := IRRTool{}.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "IRR:") {
		t.Fatalf("expected IRR result, got %q", result.Content)
	}
}

func TestBondPriceTool_ParYield(t *testing.T) {
	params, _ := json.Marshal(map[string]any{"faceValue": 1000.0, "couponRate": 0.05, "yield": 0.05, "years": 10.0})
	result, err := BondPriceTool{}.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !strings.Contains(result.Content, "1000.00") {
		t.Fatalf("expected par price ~1000.00 when yield == coupon rate, got %q", result.Content)
	}
}

func TestBondDurationTool_ReturnsPositiveDuration(t *testing.T) {
	params, _ := json.Marshal(map[string]any{"faceValue": 1000.0, "couponRate": 0.05, "yield": 0.05, "years": 10.0})
	result, err := BondDurationTool{}.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
}

func TestOptionPriceTool_CallIsPositiveForAtTheMoney(t *testing.T) {
	params, _ := json.Marshal(map[string]any{"spot": 100.0, "strike": 100.0, "T": 1.0, "r": 0.03, "sigma": 0.2})
	result, err := OptionPriceTool{}.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
}
