package gateway

import "context"

// ChargeRequest is a charge attempt sent to the gateway
type ChargeRequest struct {
	Amount float64
	Method string
	// Reference correlates the attempt with our transaction record
	Reference string
}

// ChargeResult is the gateway's answer to a charge
type ChargeResult struct {
	Success       bool
	Reference     string
	ReceiptURL    string
	FailureReason string
}

// RefundResult is the gateway's answer to a refund
type RefundResult struct {
	Success       bool
	Reference     string
	FailureReason string
}

// PaymentGateway is the opaque boundary to the payment provider. The
// ledger never inspects provider internals; it only records outcomes.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, chargeReference string, amount float64) (*RefundResult, error)
}
