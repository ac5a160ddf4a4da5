package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/marketplace/internal/domain/delivery"
)

type SaleNotificationsRepo struct {
	mu     sync.Mutex
	status map[string]string
}

func NewSaleNotificationsRepo() *SaleNotificationsRepo {
	return &SaleNotificationsRepo{status: make(map[string]string)}
}

func (r *SaleNotificationsRepo) TryStart(_ context.Context, _, paymentID, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status[paymentID] {
	case "sent":
		return delivery.ErrAlreadySent
	case "sending":
		return delivery.ErrInProgress
	}

	r.status[paymentID] = "sending"
	return nil
}

func (r *SaleNotificationsRepo) MarkSent(_ context.Context, paymentID string) error {
	r.set(paymentID, "sent")
	return nil
}

func (r *SaleNotificationsRepo) MarkFailed(_ context.Context, paymentID, _ string) error {
	r.set(paymentID, "failed")
	return nil
}

func (r *SaleNotificationsRepo) set(paymentID, status string) {
	r.mu.Lock()
	r.status[paymentID] = status
	r.mu.Unlock()
}
