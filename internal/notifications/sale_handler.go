package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/marketplace/internal/domain/delivery"
	"github.com/geocoder89/marketplace/internal/domain/job"
	"github.com/geocoder89/marketplace/internal/domain/user"
	"github.com/geocoder89/marketplace/internal/jobs"
)

type DeliveryTracker interface {
	TryStart(ctx context.Context, jobID, paymentID, recipientID string) error
	MarkSent(ctx context.Context, paymentID string) error
	MarkFailed(ctx context.Context, paymentID, errMsg string) error
}

type SellerLookup interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}

// SaleHandler runs offer.sold jobs: at most one notification per payment.
type SaleHandler struct {
	notifier   Notifier
	deliveries DeliveryTracker
	sellers    SellerLookup
	log        *slog.Logger
}

func NewSaleHandler(notifier Notifier, deliveries DeliveryTracker, sellers SellerLookup, log *slog.Logger) *SaleHandler {
	return &SaleHandler{notifier: notifier, deliveries: deliveries, sellers: sellers, log: log}
}

func (h *SaleHandler) Handle(ctx context.Context, j job.Job) error {
	decoded, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}

	p, ok := decoded.(jobs.OfferSoldPayload)
	if !ok {
		return jobs.ErrPayloadTypeMismatch
	}

	seller, err := h.sellers.FindByID(ctx, p.SellerID)
	if err != nil {
		return fmt.Errorf("load seller: %w", err)
	}

	err = h.deliveries.TryStart(ctx, j.ID, p.PaymentID, seller.ID)
	switch {
	case errors.Is(err, delivery.ErrAlreadySent):
		h.log.InfoContext(ctx, "sale notification already sent", "payment_id", p.PaymentID, "job_id", j.ID)
		return nil
	case err != nil:
		return err
	}

	sendErr := h.notifier.SendSaleNotification(ctx, SaleNotificationInput{
		PaymentID:   p.PaymentID,
		SellerID:    seller.ID,
		SellerMail:  seller.Email,
		SellerName:  seller.Username,
		OfferID:     p.OfferID,
		OfferTitle:  p.OfferTitle,
		AmountMinor: p.AmountMinor,
		Currency:    p.Currency,
	})

	if sendErr != nil {
		if err := h.deliveries.MarkFailed(ctx, p.PaymentID, sendErr.Error()); err != nil {
			h.log.ErrorContext(ctx, "mark sale notification failed", "payment_id", p.PaymentID, "err", err)
		}
		return sendErr
	}

	return h.deliveries.MarkSent(ctx, p.PaymentID)
}
