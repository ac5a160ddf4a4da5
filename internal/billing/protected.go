package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/marketplace/internal/breaker"
)

// ProtectedProcessor fails fast while the processor is down. Declined cards do
// not count as failures.
type ProtectedProcessor struct {
	inner   Processor
	breaker *breaker.Breaker
}

func NewProtectedProcessor(inner Processor, cfg breaker.Config) *ProtectedProcessor {
	cfg.IsFailure = func(err error) bool {
		return !errors.Is(err, ErrChargeDeclined)
	}

	return &ProtectedProcessor{inner: inner, breaker: breaker.New(cfg)}
}

func (p *ProtectedProcessor) Charge(ctx context.Context, req ChargeRequest) (Charge, error) {
	var out Charge

	err := p.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = p.inner.Charge(ctx, req)
		return err
	})

	if errors.Is(err, breaker.ErrOpen) {
		return Charge{}, fmt.Errorf("%w: %w", ErrProcessorUnavailable, err)
	}

	return out, err
}
