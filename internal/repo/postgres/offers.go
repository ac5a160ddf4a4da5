package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/marketplace/internal/domain/offer"
	"github.com/geocoder89/marketplace/internal/observability"
)

type OffersRepo struct {
	store
}

func NewOffersRepo(pool *pgxpool.Pool, prom *observability.Prom) *OffersRepo {
	return &OffersRepo{store{pool: pool, prom: prom}}
}

const offerColumnList = `id, title, description, price, details, image_url, owner_id, created_at, updated_at`

func offerDest(o *offer.Offer) []any {
	return []any{
		&o.ID,
		&o.Title,
		&o.Description,
		&o.Price,
		&o.Details,
		&o.ImageURL,
		&o.OwnerID,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

func scanOffer(row pgx.Row) (offer.Offer, error) {
	var o offer.Offer

	if err := row.Scan(offerDest(&o)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return offer.Offer{}, offer.ErrNotFound
		}
		return offer.Offer{}, err
	}

	if len(o.Details) == 0 {
		o.Details = nil
	}

	return o, nil
}

func detailsOrEmpty(d map[string]string) map[string]string {
	if d == nil {
		return map[string]string{}
	}
	return d
}

func (r *OffersRepo) Create(ctx context.Context, o offer.Offer) (offer.Offer, error) {
	err := r.observe("offers.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO offers (`+offerColumnList+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			o.ID, o.Title, o.Description, o.Price, detailsOrEmpty(o.Details), o.ImageURL, o.OwnerID, o.CreatedAt, o.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return offer.Offer{}, err
	}

	return o, nil
}

func (r *OffersRepo) GetByID(ctx context.Context, id string) (offer.Offer, error) {
	var o offer.Offer

	err := r.observe("offers.get_by_id", func() error {
		var err error
		o, err = scanOffer(r.pool.QueryRow(ctx, `SELECT `+offerColumnList+` FROM offers WHERE id = $1`, id))
		return err
	})

	return o, err
}

// Search returns one page of matches plus the total number of matches.
func (r *OffersRepo) Search(ctx context.Context, p offer.SearchParams) ([]offer.Offer, int, error) {
	query, args, err := BuildSearchQuery(p)
	if err != nil {
		return nil, 0, err
	}

	items := make([]offer.Offer, 0, p.PageSize)
	total := 0

	err = r.observe("offers.search", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var o offer.Offer
			if err := rows.Scan(append(offerDest(&o), &total)...); err != nil {
				return err
			}
			if len(o.Details) == 0 {
				o.Details = nil
			}
			items = append(items, o)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	// past the last page the window count is unavailable
	if len(items) == 0 && p.Offset() > 0 {
		countQuery, countArgs, err := BuildCountQuery(p)
		if err != nil {
			return nil, 0, err
		}

		err = r.observe("offers.count", func() error {
			return r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total)
		})
		if err != nil {
			return nil, 0, err
		}
	}

	return items, total, nil
}

// Update applies req only if ownerID owns the offer. A miss on either
// condition returns offer.ErrNotFound.
func (r *OffersRepo) Update(ctx context.Context, ownerID string, req offer.UpdateRequest) (offer.Offer, error) {
	query, args, err := BuildUpdateQuery(ownerID, req, time.Now())
	if err != nil {
		return offer.Offer{}, err
	}

	var o offer.Offer

	err = r.observe("offers.update", func() error {
		var err error
		o, err = scanOffer(r.pool.QueryRow(ctx, query, args...))
		return err
	})

	return o, err
}

func (r *OffersRepo) SetImage(ctx context.Context, id, imageURL string) (offer.Offer, error) {
	var o offer.Offer

	err := r.observe("offers.set_image", func() error {
		var err error
		o, err = scanOffer(r.pool.QueryRow(ctx,
			`UPDATE offers SET image_url = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+offerColumnList,
			id, imageURL,
		))
		return err
	})

	return o, err
}

func (r *OffersRepo) Delete(ctx context.Context, id string) error {
	return r.observe("offers.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return offer.ErrNotFound
		}
		return nil
	})
}
