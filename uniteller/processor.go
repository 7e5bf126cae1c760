package uniteller

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credentials identify the merchant to the gateway.
type Credentials struct {
	ShopIDP  string
	Login    string
	Password string
}

// Settings drives the behaviour of the Uniteller payment method for one
// store scope.
type Settings struct {
	Credentials
	AdditionalFee           decimal.Decimal
	AdditionalFeePercentage bool
	Enabled                 bool
}

// AdditionalHandlingFee returns the surcharge for paying through this
// method: a percentage of the order total or a fixed amount.
func (s Settings) AdditionalHandlingFee(total decimal.Decimal) decimal.Decimal {
	if s.AdditionalFeePercentage {
		return total.Mul(s.AdditionalFee).Div(decimal.NewFromInt(100))
	}
	return s.AdditionalFee
}

// ProcessResult is the outcome of a payment operation. Operations the
// gateway does not support return a result carrying an error instead of
// attempting execution.
type ProcessResult struct {
	Errors           []string
	NewPaymentStatus string
}

func (r *ProcessResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

func (r ProcessResult) Success() bool {
	return len(r.Errors) == 0
}

// ProcessPayment leaves the order pending. The real outcome arrives later
// through the gateway callback.
func ProcessPayment() ProcessResult {
	return ProcessResult{NewPaymentStatus: "pending"}
}

func Capture() ProcessResult {
	var r ProcessResult
	r.AddError("Capture method not supported")
	return r
}

func Refund() ProcessResult {
	var r ProcessResult
	r.AddError("Refund method not supported")
	return r
}

func Void() ProcessResult {
	var r ProcessResult
	r.AddError("Void method not supported")
	return r
}

func ProcessRecurringPayment() ProcessResult {
	var r ProcessResult
	r.AddError("Recurring payment not supported")
	return r
}

func CancelRecurringPayment() ProcessResult {
	var r ProcessResult
	r.AddError("Recurring payment not supported")
	return r
}

// CanRePostProcessPayment reports whether the shopper may retry the redirect
// to the gateway. At least 5 seconds must pass after the order is placed.
func CanRePostProcessPayment(createdAt time.Time) bool {
	return time.Since(createdAt) >= 5*time.Second
}
