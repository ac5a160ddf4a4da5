package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/marketplace/internal/domain/job"
	"github.com/geocoder89/marketplace/internal/domain/offer"
	"github.com/geocoder89/marketplace/internal/domain/payment"
	"github.com/geocoder89/marketplace/internal/observability"
)

type PaymentsRepo struct {
	store
	jobs *JobsRepo
}

func NewPaymentsRepo(pool *pgxpool.Pool, prom *observability.Prom, jobs *JobsRepo) *PaymentsRepo {
	return &PaymentsRepo{store: store{pool: pool, prom: prom}, jobs: jobs}
}

// CompleteSale writes the payment audit row, deletes the sold offer and
// enqueues notify in one transaction. The audit row is written before the
// delete; if the offer is already gone nothing is kept and offer.ErrNotFound
// is returned.
func (r *PaymentsRepo) CompleteSale(ctx context.Context, p payment.Payment, notify job.CreateRequest) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin sale tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = r.observe("payments.insert", func() error {
		_, err := tx.Exec(ctx,
			`INSERT INTO payments (id, offer_id, offer, buyer_id, charge_id, source_token, amount_minor, currency, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			p.ID, p.Offer.ID, p.Offer, p.BuyerID, p.ChargeID, p.SourceToken, p.AmountMinor, p.Currency, p.CreatedAt,
		)
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) && constraintOf(err) == "payments_offer_id_key" {
			return offer.ErrNotFound
		}
		return fmt.Errorf("insert payment: %w", err)
	}

	err = r.observe("offers.delete_sold", func() error {
		tag, err := tx.Exec(ctx, `DELETE FROM offers WHERE id = $1`, p.Offer.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return offer.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, offer.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete sold offer: %w", err)
	}

	if _, err = r.jobs.CreateTx(ctx, tx, notify); err != nil {
		return fmt.Errorf("enqueue sale notification: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit sale tx: %w", err)
	}

	return nil
}

func (r *PaymentsRepo) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool

	err := r.observe("payments.exists", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE id = $1)`, id).Scan(&ok)
	})

	return ok, err
}

func (r *PaymentsRepo) GetByID(ctx context.Context, id string) (payment.Payment, error) {
	var p payment.Payment

	err := r.observe("payments.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, offer, buyer_id, charge_id, source_token, amount_minor, currency, created_at
			FROM payments WHERE id = $1`, id,
		).Scan(&p.ID, &p.Offer, &p.BuyerID, &p.ChargeID, &p.SourceToken, &p.AmountMinor, &p.Currency, &p.CreatedAt)
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return payment.Payment{}, payment.ErrNotFound
	}

	return p, err
}
