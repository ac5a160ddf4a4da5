// Package checkout turns a buyer's card token into a recorded sale: charge,
// audit record plus offer removal, and the seller notification job.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/marketplace/internal/billing"
	"github.com/geocoder89/marketplace/internal/domain/job"
	"github.com/geocoder89/marketplace/internal/domain/offer"
	"github.com/geocoder89/marketplace/internal/domain/payment"
	"github.com/geocoder89/marketplace/internal/jobs"
	"github.com/geocoder89/marketplace/internal/observability"
)

var (
	ErrOwnOffer        = errors.New("cannot buy own offer")
	ErrSaleNotRecorded = errors.New("sale not recorded after charge")
)

const MsgSaleNotRecorded = "Payment captured but sale could not be recorded"

type OfferReader interface {
	GetByID(ctx context.Context, id string) (offer.Offer, error)
}

// SaleRecorder stores the payment, removes the offer and enqueues notify atomically.
type SaleRecorder interface {
	CompleteSale(ctx context.Context, p payment.Payment, notify job.CreateRequest) error
	Exists(ctx context.Context, id string) (bool, error)
}

type JobEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Service struct {
	offers    OfferReader
	sales     SaleRecorder
	jobs      JobEnqueuer
	processor billing.Processor
	cache     Invalidator
	currency  string
	log       *slog.Logger
	prom      *observability.Prom
}

type Deps struct {
	Offers    OfferReader
	Sales     SaleRecorder
	Jobs      JobEnqueuer
	Processor billing.Processor
	Cache     Invalidator
	Currency  string
	Log       *slog.Logger
	Prom      *observability.Prom
}

func NewService(d Deps) *Service {
	currency := d.Currency
	if currency == "" {
		currency = "eur"
	}

	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		offers:    d.Offers,
		sales:     d.Sales,
		jobs:      d.Jobs,
		processor: d.Processor,
		cache:     d.Cache,
		currency:  currency,
		log:       log,
		prom:      d.Prom,
	}
}

// Purchase charges the buyer the stored offer price and records the sale.
// A failed charge writes nothing. A recorded sale removes the offer for everyone.
func (s *Service) Purchase(ctx context.Context, buyerID, offerID, sourceToken string) (payment.Payment, error) {
	o, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return payment.Payment{}, err
	}

	if o.OwnerID == buyerID {
		s.prom.ObservePayment("forbidden")
		return payment.Payment{}, ErrOwnOffer
	}

	charge, err := s.processor.Charge(ctx, billing.ChargeRequest{
		AmountMinor:    payment.AmountMinor(o.Price),
		Currency:       s.currency,
		Source:         sourceToken,
		Description:    o.Title,
		IdempotencyKey: "charge:" + sourceToken,
	})
	if err != nil {
		s.prom.ObservePayment("charge_failed")
		s.log.WarnContext(ctx, "charge failed", "offer_id", o.ID, "err", err)
		return payment.Payment{}, err
	}

	p := payment.New(payment.NewParams{
		Offer:       o,
		BuyerID:     buyerID,
		ChargeID:    charge.ID,
		SourceToken: sourceToken,
		Currency:    s.currency,
	})

	if err := s.record(ctx, p); err != nil {
		s.prom.ObservePayment("not_recorded")
		s.log.ErrorContext(ctx, "charge captured but sale not recorded",
			"offer_id", o.ID, "charge_id", charge.ID, "payment_id", p.ID, "err", err)
		s.enqueueReconcile(ctx, p)

		return payment.Payment{}, fmt.Errorf("%w: %v", ErrSaleNotRecorded, err)
	}

	s.prom.ObservePayment("succeeded")
	s.log.InfoContext(ctx, "offer sold", "offer_id", o.ID, "payment_id", p.ID, "charge_id", charge.ID)

	return p, nil
}

func (s *Service) record(ctx context.Context, p payment.Payment) error {
	notify, err := jobs.OfferSoldRequest(p)
	if err != nil {
		return err
	}

	if err := s.sales.CompleteSale(ctx, p, notify); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	return nil
}

func (s *Service) enqueueReconcile(ctx context.Context, p payment.Payment) {
	req, err := jobs.PaymentReconcileRequest(p)
	if err == nil {
		_, err = s.jobs.Create(context.WithoutCancel(ctx), req)
	}

	if err != nil {
		s.log.ErrorContext(ctx, "enqueue payment reconcile failed",
			"charge_id", p.ChargeID, "payment_id", p.ID, "err", err)
	}
}

// HandleReconcile retries recording a captured charge. When the offer is gone
// the charge cannot be matched to a sale and has to be refunded by hand.
func (s *Service) HandleReconcile(ctx context.Context, j job.Job) error {
	decoded, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}

	rp, ok := decoded.(jobs.PaymentReconcilePayload)
	if !ok {
		return jobs.ErrPayloadTypeMismatch
	}

	p := rp.RestorePayment()

	exists, err := s.sales.Exists(ctx, p.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = s.record(ctx, p)
	switch {
	case errors.Is(err, offer.ErrNotFound):
		s.prom.ObservePayment("refund_required")
		s.log.ErrorContext(ctx, "refund required: offer no longer available",
			"offer_id", p.Offer.ID, "charge_id", p.ChargeID, "payment_id", p.ID, "job_id", j.ID)
		return nil
	case err != nil:
		return err
	}

	s.prom.ObservePayment("reconciled")
	s.log.InfoContext(ctx, "sale reconciled", "offer_id", p.Offer.ID, "payment_id", p.ID, "job_id", j.ID)

	return nil
}
