package calc

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ragagent/ragagent/internal/agent"
)

const (
	irrTolerance  = 1e-10
	irrMaxIter    = 1000
	irrLowerBound = -0.99
	irrUpperBound = 10.0
)

// AmortizationTool implements calculateAmortization: the equal-instalment
// payment M = P*r*(1+r)^n / ((1+r)^n - 1), r = annualRate/12, n = termYears*12.
type AmortizationTool struct{}

var _ agent.Tool = AmortizationTool{}

func (AmortizationTool) Name() string { return "calculateAmortization" }
func (AmortizationTool) Description() string {
	return "Computes the equal monthly instalment for a fully amortising loan."
}
func (AmortizationTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "principal": {"type": "number"},
    "annualRate": {"type": "number", "description": "as a fraction, e.g. 0.05 for 5%"},
    "termYears": {"type": "number"}
  },
  "required": ["principal", "annualRate", "termYears"]
}`)
}

func (AmortizationTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Principal  float64 `json:"principal"`
		AnnualRate float64 `json:"annualRate"`
		TermYears  float64 `json:"termYears"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult("invalid parameters: %v", err), nil
	}
	if input.Principal <= 0 {
		return errResult("principal must be > 0"), nil
	}
	if input.AnnualRate <= 0 || input.AnnualRate > 1 {
		return errResult("annualRate must be in (0, 1]"), nil
	}
	if input.TermYears < 1 || input.TermYears > 50 {
		return errResult("termYears must be in [1, 50]"), nil
	}

	r := input.AnnualRate / 12
	n := input.TermYears * 12
	factor := math.Pow(1+r, n)
	monthly := input.Principal * r * factor / (factor - 1)

	return &agent.ToolResult{Content: fmt.Sprintf("monthly payment: %.2f (over %d months at %.4f%% monthly rate)", monthly, int(n), r*100)}, nil
}

// IRRTool implements calculateIRR via Newton's method over a CSV cashflow
// series, the first entry being the initial (typically negative) outlay.
type IRRTool struct{}

var _ agent.Tool = IRRTool{}

func (IRRTool) Name() string        { return "calculateIRR" }
func (IRRTool) Description() string { return "Computes the internal rate of return for a cashflow series." }
func (IRRTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {"cashflows": {"type": "string", "description": "Comma-separated cashflow series, e.g. \"-1000,300,400,500\""}},
  "required": ["cashflows"]
}`)
}

func (IRRTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Cashflows string `json:"cashflows"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult("invalid parameters: %v", err), nil
	}
	flows, err := parseCSVFloats(input.Cashflows)
	if err != nil {
		return errResult("invalid cashflows: %v", err), nil
	}
	if len(flows) < 2 {
		return errResult("at least two cashflows are required"), nil
	}

	rate, err := newtonIRR(flows)
	if err != nil {
		return errResult("IRR did not converge: %v", err), nil
	}
	return &agent.ToolResult{Content: fmt.Sprintf("IRR: %.6f%%", rate*100)}, nil
}

func parseCSVFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func npv(rate float64, flows []float64) float64 {
	total := 0.0
	for t, cf := range flows {
		total += cf / math.Pow(1+rate, float64(t))
	}
	return total
}

func npvDerivative(rate float64, flows []float64) float64 {
	total := 0.0
	for t, cf := range flows {
		if t == 0 {
			continue
		}
		total += -float64(t) * cf / math.Pow(1+rate, float64(t+1))
	}
	return total
}

func newtonIRR(flows []float64) (float64, error) {
	rate := 0.1
	for i := 0; i < irrMaxIter; i++ {
		f := npv(rate, flows)
		if math.Abs(f) < irrTolerance {
			return rate, nil
		}
		d := npvDerivative(rate, flows)
		if d == 0 {
			return 0, fmt.Errorf("zero derivative at rate %.6f", rate)
		}
		next := rate - f/d
		if next < irrLowerBound {
			next = irrLowerBound
		}
		if next > irrUpperBound {
			next = irrUpperBound
		}
		rate = next
	}
	return 0, fmt.Errorf("exceeded %d iterations", irrMaxIter)
}

// BondPriceTool implements calculateBondPrice: present value of coupons plus
// redemption at the face value, discounted at yield.
type BondPriceTool struct{}

var _ agent.Tool = BondPriceTool{}

func (BondPriceTool) Name() string        { return "calculateBondPrice" }
func (BondPriceTool) Description() string { return "Computes a bond's clean price from its cashflows and yield." }
func (BondPriceTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "faceValue": {"type": "number"},
    "couponRate": {"type": "number"},
    "yield": {"type": "number"},
    "years": {"type": "number"}
  },
  "required": ["faceValue", "couponRate", "yield", "years"]
}`)
}

func (BondPriceTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		FaceValue  float64 `json:"faceValue"`
		CouponRate float64 `json:"couponRate"`
		Yield      float64 `json:"yield"`
		Years      float64 `json:"years"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult("invalid parameters: %v", err), nil
	}
	if input.FaceValue <= 0 || input.Years <= 0 {
		return errResult("faceValue and years must be > 0"), nil
	}

	price := bondPrice(input.FaceValue, input.CouponRate, input.Yield, input.Years)
	return &agent.ToolResult{Content: fmt.Sprintf("bond price: %.2f", price)}, nil
}

func bondPrice(faceValue, couponRate, yield, years float64) float64 {
	coupon := faceValue * couponRate
	n := int(math.Round(years))
	price := 0.0
	for t := 1; t <= n; t++ {
		price += coupon / math.Pow(1+yield, float64(t))
	}
	price += faceValue / math.Pow(1+yield, float64(n))
	return price
}

// BondDurationTool implements calculateBondDuration: Macaulay duration, the
// coupon-and-redemption-cashflow-weighted average time to receipt.
type BondDurationTool struct{}

var _ agent.Tool = BondDurationTool{}

func (BondDurationTool) Name() string { return "calculateBondDuration" }
func (BondDurationTool) Description() string {
	return "Computes a bond's Macaulay duration in years."
}
func (BondDurationTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "faceValue": {"type": "number"},
    "couponRate": {"type": "number"},
    "yield": {"type": "number"},
    "years": {"type": "number"}
  },
  "required": ["faceValue", "couponRate", "yield", "years"]
}`)
}

func (BondDurationTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		FaceValue  float64 `json:"faceValue"`
		CouponRate float64 `json:"couponRate"`
		Yield      float64 `json:"yield"`
		Years      float64 `json:"years"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult("invalid parameters: %v", err), nil
	}
	if input.FaceValue <= 0 || input.Years <= 0 {
		return errResult("faceValue and years must be > 0"), nil
	}

	coupon := input.FaceValue * input.CouponRate
	n := int(math.Round(input.Years))
	price := bondPrice(input.FaceValue, input.CouponRate, input.Yield, input.Years)
	if price == 0 {
		return errResult("bond price evaluated to zero"), nil
	}

	weighted := 0.0
	for t := 1; t <= n; t++ {
		cf := coupon
		if t == n {
			cf += input.FaceValue
		}
		weighted += float64(t) * cf / math.Pow(1+input.Yield, float64(t))
	}
	duration := weighted / price

	return &agent.ToolResult{Content: fmt.Sprintf("Macaulay duration: %.4f years", duration)}, nil
}

// OptionPriceTool implements calculateOptionPrice: Black-Scholes with an
// Abramowitz-Stegun approximation of the standard normal CDF.
type OptionPriceTool struct{}

var _ agent.Tool = OptionPriceTool{}

func (OptionPriceTool) Name() string { return "calculateOptionPrice" }
func (OptionPriceTool) Description() string {
	return "Computes a European call option price via Black-Scholes."
}
func (OptionPriceTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "spot": {"type": "number"},
    "strike": {"type": "number"},
    "T": {"type": "number", "description": "time to expiry in years"},
    "r": {"type": "number", "description": "risk-free rate"},
    "sigma": {"type": "number", "description": "volatility"}
  },
  "required": ["spot", "strike", "T", "r", "sigma"]
}`)
}

func (OptionPriceTool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Spot   float64 `json:"spot"`
		Strike float64 `json:"strike"`
		T      float64 `json:"T"`
		R      float64 `json:"r"`
		Sigma  float64 `json:"sigma"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return errResult("invalid parameters: %v", err), nil
	}
	if input.Spot <= 0 || input.Strike <= 0 || input.T <= 0 || input.Sigma <= 0 {
		return errResult("spot, strike, T, and sigma must be > 0"), nil
	}

	price := blackScholesCall(input.Spot, input.Strike, input.T, input.R, input.Sigma)
	return &agent.ToolResult{Content: fmt.Sprintf("call price: %.4f", price)}, nil
}

func blackScholesCall(spot, strike, t, r, sigma float64) float64 {
	d1 := (math.Log(spot/strike) + (r+sigma*sigma/2)*t) / (sigma * math.Sqrt(t))
	d2 := d1 - sigma*math.Sqrt(t)
	return spot*normalCDF(d1) - strike*math.Exp(-r*t)*normalCDF(d2)
}

// normalCDF approximates the standard normal CDF via Abramowitz & Stegun
// formula 26.2.17, accurate to about 7.5e-8.
func normalCDF(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1
		x = -x
	}
	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)
	t := 1 / (1 + p*x/math.Sqrt2)
	poly := ((((a5*t+a4)*t+a3)*t+a2)*t + a1) * t
	erf := 1 - poly*math.Exp(-x*x/2)
	return 0.5 * (1 + sign*erf)
}

func errResult(format string, args ...any) *agent.ToolResult {
	return &agent.ToolResult{Content: fmt.Sprintf(format, args...), IsError: true}
}
