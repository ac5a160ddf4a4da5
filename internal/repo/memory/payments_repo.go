package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/marketplace/internal/domain/job"
	"github.com/geocoder89/marketplace/internal/domain/offer"
	"github.com/geocoder89/marketplace/internal/domain/payment"
)

// PaymentsRepo mirrors the transactional sale of the postgres repo: the audit
// row is written first and removed again if the offer delete fails.
type PaymentsRepo struct {
	mu     sync.Mutex
	items  map[string]payment.Payment
	offers *OffersRepo
	jobs   *JobsRepo
}

func NewPaymentsRepo(offers *OffersRepo, jobs *JobsRepo) *PaymentsRepo {
	return &PaymentsRepo{
		items:  make(map[string]payment.Payment),
		offers: offers,
		jobs:   jobs,
	}
}

func (r *PaymentsRepo) CompleteSale(ctx context.Context, p payment.Payment, notify job.CreateRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Offer.ID == p.Offer.ID {
			return offer.ErrNotFound
		}
	}

	r.items[p.ID] = p

	sold, at, err := r.offers.take(p.Offer.ID)
	if err != nil {
		delete(r.items, p.ID)
		return err
	}

	if _, err := r.jobs.Create(ctx, notify); err != nil {
		delete(r.items, p.ID)
		r.offers.putBack(sold, at)
		return err
	}

	return nil
}

func (r *PaymentsRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[id]
	return ok, nil
}

func (r *PaymentsRepo) GetByID(_ context.Context, id string) (payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	return p, nil
}

func (r *PaymentsRepo) All() []payment.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]payment.Payment, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	return out
}
