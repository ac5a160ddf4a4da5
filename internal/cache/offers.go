package cache

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/geocoder89/marketplace/internal/domain/offer"
	"github.com/geocoder89/marketplace/internal/observability"
	"github.com/geocoder89/marketplace/internal/utils"
)

type OfferRepo interface {
	Create(ctx context.Context, o offer.Offer) (offer.Offer, error)
	GetByID(ctx context.Context, id string) (offer.Offer, error)
	Search(ctx context.Context, p offer.SearchParams) ([]offer.Offer, int, error)
	Update(ctx context.Context, ownerID string, req offer.UpdateRequest) (offer.Offer, error)
	SetImage(ctx context.Context, id, imageURL string) (offer.Offer, error)
	Delete(ctx context.Context, id string) error
}

// CachedOffers serves reads from a Store. Every write bumps a generation
// counter that is part of each key, so a read after a write never sees the
// old value. Cache errors fall through to the repo.
type CachedOffers struct {
	repo  OfferRepo
	store Store
	log   *slog.Logger
	prom  *observability.Prom
}

func NewCachedOffers(repo OfferRepo, store Store, log *slog.Logger, prom *observability.Prom) *CachedOffers {
	return &CachedOffers{repo: repo, store: store, log: log, prom: prom}
}

type searchEntry struct {
	Items []offer.Offer `json:"items"`
	Total int           `json:"total"`
}

func (c *CachedOffers) generation(ctx context.Context) (int64, bool) {
	gen, err := c.store.Counter(ctx, utils.OffersGenerationKey)
	if err != nil {
		c.log.WarnContext(ctx, "offer cache unavailable", "err", err)
		return 0, false
	}
	return gen, true
}

func (c *CachedOffers) load(ctx context.Context, kind, key string, dst any) bool {
	b, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "offer cache get failed", "key", key, "err", err)
		return false
	}

	hit := ok && json.Unmarshal(b, dst) == nil
	c.prom.ObserveCache(kind, hit)

	return hit
}

func (c *CachedOffers) save(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}

	if err := c.store.Set(ctx, key, b); err != nil {
		c.log.WarnContext(ctx, "offer cache set failed", "key", key, "err", err)
	}
}

func (c *CachedOffers) GetByID(ctx context.Context, id string) (offer.Offer, error) {
	gen, ok := c.generation(ctx)
	if !ok {
		return c.repo.GetByID(ctx, id)
	}

	key := utils.BuildOfferCacheKey(gen, id)

	var o offer.Offer
	if c.load(ctx, "offer", key, &o) {
		return o, nil
	}

	o, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return offer.Offer{}, err
	}

	c.save(ctx, key, o)

	return o, nil
}

func (c *CachedOffers) Search(ctx context.Context, p offer.SearchParams) ([]offer.Offer, int, error) {
	gen, ok := c.generation(ctx)
	if !ok {
		return c.repo.Search(ctx, p)
	}

	key := utils.BuildOfferSearchCacheKey(gen, p.CacheKey())

	var e searchEntry
	if c.load(ctx, "search", key, &e) {
		return e.Items, e.Total, nil
	}

	items, total, err := c.repo.Search(ctx, p)
	if err != nil {
		return nil, 0, err
	}

	c.save(ctx, key, searchEntry{Items: items, Total: total})

	return items, total, nil
}

// Invalidate makes every cached offer read stale.
func (c *CachedOffers) Invalidate(ctx context.Context) {
	if _, err := c.store.Incr(ctx, utils.OffersGenerationKey); err != nil {
		c.log.ErrorContext(ctx, "offer cache invalidation failed", "err", err)
	}
}

func (c *CachedOffers) Create(ctx context.Context, o offer.Offer) (offer.Offer, error) {
	out, err := c.repo.Create(ctx, o)
	if err == nil {
		c.Invalidate(ctx)
	}
	return out, err
}

func (c *CachedOffers) Update(ctx context.Context, ownerID string, req offer.UpdateRequest) (offer.Offer, error) {
	out, err := c.repo.Update(ctx, ownerID, req)
	if err == nil {
		c.Invalidate(ctx)
	}
	return out, err
}

func (c *CachedOffers) SetImage(ctx context.Context, id, imageURL string) (offer.Offer, error) {
	out, err := c.repo.SetImage(ctx, id, imageURL)
	if err == nil {
		c.Invalidate(ctx)
	}
	return out, err
}

func (c *CachedOffers) Delete(ctx context.Context, id string) error {
	err := c.repo.Delete(ctx, id)
	if err == nil {
		c.Invalidate(ctx)
	}
	return err
}
