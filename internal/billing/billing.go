// Package billing charges buyers through an external payment processor.
package billing

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrChargeFailed         = errors.New("charge failed")
	ErrChargeDeclined       = fmt.Errorf("%w: declined", ErrChargeFailed)
	ErrProcessorUnavailable = fmt.Errorf("%w: processor unavailable", ErrChargeFailed)
)

type ChargeRequest struct {
	AmountMinor    int64
	Currency       string
	Source         string
	Description    string
	IdempotencyKey string
}

type Charge struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
}

// Processor either captures the full amount or returns an error wrapping ErrChargeFailed.
type Processor interface {
	Charge(ctx context.Context, req ChargeRequest) (Charge, error)
}
