package notifications

import (
	"context"

	"github.com/geocoder89/marketplace/internal/breaker"
)

// ProtectedNotifier guards a Notifier with a timeout and a circuit breaker.
type ProtectedNotifier struct {
	inner   Notifier
	breaker *breaker.Breaker
}

func NewProtectedNotifier(inner Notifier, cfg breaker.Config) *ProtectedNotifier {
	return &ProtectedNotifier{
		inner:   inner,
		breaker: breaker.New(cfg),
	}
}

func (n *ProtectedNotifier) SendSaleNotification(ctx context.Context, input SaleNotificationInput) error {
	return n.breaker.Do(ctx, func(ctx context.Context) error {
		return n.inner.SendSaleNotification(ctx, input)
	})
}
