package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/marketplace/internal/domain/delivery"
	"github.com/geocoder89/marketplace/internal/observability"
)

// SaleNotificationsRepo dedupes seller notifications per payment.
type SaleNotificationsRepo struct {
	store
}

func NewSaleNotificationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *SaleNotificationsRepo {
	return &SaleNotificationsRepo{store{pool: pool, prom: prom}}
}

// TryStart claims the delivery for paymentID. It returns delivery.ErrAlreadySent
// or delivery.ErrInProgress when another attempt owns it.
func (r *SaleNotificationsRepo) TryStart(ctx context.Context, jobID, paymentID, recipientID string) error {
	// 1) Insert if missing
	err := r.observe("sale_notifications.insert", func() error {
		_, err := r.pool.Exec(ctx, `
		INSERT INTO sale_notification_deliveries (payment_id, job_id, recipient_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'sending', NOW(), NOW())
	`, paymentID, jobID, recipientID)
		return err
	})

	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// 2) Row exists. Only one worker can flip failed -> sending.
	var claimed int64

	err = r.observe("sale_notifications.reclaim", func() error {
		tag, err := r.pool.Exec(ctx, `
		UPDATE sale_notification_deliveries
		SET status = 'sending',
		    job_id = $2,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE payment_id = $1 AND status = 'failed'
	`, paymentID, jobID)
		claimed = tag.RowsAffected()
		return err
	})

	if err != nil {
		return err
	}
	if claimed == 1 {
		return nil
	}

	// 3) Not failed: already sent or currently sending.
	var status string
	var sentAt *time.Time

	err = r.observe("sale_notifications.status", func() error {
		return r.pool.QueryRow(ctx, `
		SELECT status, sent_at
		FROM sale_notification_deliveries
		WHERE payment_id = $1
	`, paymentID).Scan(&status, &sentAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// row disappeared; let caller retry
			return nil
		}
		return err
	}

	if sentAt != nil || status == "sent" {
		return delivery.ErrAlreadySent
	}

	return delivery.ErrInProgress
}

func (r *SaleNotificationsRepo) MarkSent(ctx context.Context, paymentID string) error {
	return r.observe("sale_notifications.mark_sent", func() error {
		_, err := r.pool.Exec(ctx, `
		UPDATE sale_notification_deliveries
		SET status = 'sent',
		    sent_at = NOW(),
		    last_error = NULL,
		    updated_at = NOW()
		WHERE payment_id = $1
	`, paymentID)
		return err
	})
}

func (r *SaleNotificationsRepo) MarkFailed(ctx context.Context, paymentID, errMsg string) error {
	return r.observe("sale_notifications.mark_failed", func() error {
		_, err := r.pool.Exec(ctx, `
		UPDATE sale_notification_deliveries
		SET status = 'failed',
		    last_error = $2,
		    updated_at = NOW()
		WHERE payment_id = $1
	`, paymentID, errMsg)
		return err
	})
}
