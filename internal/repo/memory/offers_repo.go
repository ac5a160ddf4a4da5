package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/geocoder89/marketplace/internal/domain/offer"
)

// OffersRepo keeps offers in insertion order, which is the natural search order.
type OffersRepo struct {
	mu    sync.RWMutex
	items []offer.Offer
}

func NewOffersRepo() *OffersRepo {
	return &OffersRepo{}
}

func (r *OffersRepo) indexOf(id string) int {
	return slices.IndexFunc(r.items, func(o offer.Offer) bool { return o.ID == id })
}

func (r *OffersRepo) Create(_ context.Context, o offer.Offer) (offer.Offer, error) {
	r.mu.Lock()
	r.items = append(r.items, o.Clone())
	r.mu.Unlock()

	return o, nil
}

func (r *OffersRepo) GetByID(_ context.Context, id string) (offer.Offer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return offer.Offer{}, offer.ErrNotFound
	}

	return r.items[i].Clone(), nil
}

func (r *OffersRepo) Search(_ context.Context, p offer.SearchParams) ([]offer.Offer, int, error) {
	r.mu.RLock()
	matches := make([]offer.Offer, 0)
	for _, o := range r.items {
		if p.Matches(o) {
			matches = append(matches, o.Clone())
		}
	}
	r.mu.RUnlock()

	switch p.Sort {
	case offer.SortPriceAsc:
		slices.SortStableFunc(matches, func(a, b offer.Offer) int { return cmpFloat(a.Price, b.Price) })
	case offer.SortPriceDesc:
		slices.SortStableFunc(matches, func(a, b offer.Offer) int { return cmpFloat(b.Price, a.Price) })
	}

	total := len(matches)
	start := min(p.Offset(), total)
	end := min(start+p.PageSize, total)

	return matches[start:end], total, nil
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (r *OffersRepo) Update(_ context.Context, ownerID string, req offer.UpdateRequest) (offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(req.ID)
	if i < 0 || r.items[i].OwnerID != ownerID {
		return offer.Offer{}, offer.ErrNotFound
	}

	r.items[i] = req.Apply(r.items[i], time.Now())

	return r.items[i].Clone(), nil
}

func (r *OffersRepo) SetImage(_ context.Context, id, imageURL string) (offer.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return offer.Offer{}, offer.ErrNotFound
	}

	r.items[i].ImageURL = imageURL
	r.items[i].UpdatedAt = time.Now().UTC()

	return r.items[i].Clone(), nil
}

func (r *OffersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return offer.ErrNotFound
	}

	r.items = slices.Delete(r.items, i, i+1)

	return nil
}

// take removes an offer and reports where it was so putBack can undo it.
func (r *OffersRepo) take(id string) (offer.Offer, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return offer.Offer{}, 0, offer.ErrNotFound
	}

	o := r.items[i]
	r.items = slices.Delete(r.items, i, i+1)

	return o, i, nil
}

func (r *OffersRepo) putBack(o offer.Offer, at int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = slices.Insert(r.items, min(at, len(r.items)), o)
}

func (r *OffersRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}
