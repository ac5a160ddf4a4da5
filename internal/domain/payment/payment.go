package payment

import (
	"errors"
	"maps"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/geocoder89/marketplace/internal/domain/offer"
)

// OfferSnapshot freezes the sold offer at sale time.
type OfferSnapshot struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Details     map[string]string `json:"details,omitempty"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	OwnerID     string            `json:"ownerId"`
}

func Snapshot(o offer.Offer) OfferSnapshot {
	return OfferSnapshot{
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		Price:       o.Price,
		Details:     maps.Clone(o.Details),
		ImageURL:    o.ImageURL,
		OwnerID:     o.OwnerID,
	}
}

// Payment is the immutable audit record of a sale.
type Payment struct {
	ID          string        `json:"id"`
	Offer       OfferSnapshot `json:"offer"`
	BuyerID     string        `json:"buyerId"`
	ChargeID    string        `json:"chargeId"`
	SourceToken string        `json:"-"`
	AmountMinor int64         `json:"amountMinor"`
	Currency    string        `json:"currency"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type PurchaseRequest struct {
	OfferID     string `json:"id" form:"id" binding:"required"`
	StripeToken string `json:"stripeToken" form:"stripeToken" binding:"required"`
}

// Receipt is the response to a completed purchase.
type Receipt struct {
	Message   string `json:"message"`
	PaymentID string `json:"paymentId"`
	ChargeID  string `json:"chargeId"`
}

// AmountMinor converts a price to minor currency units (cents).
func AmountMinor(price float64) int64 {
	return int64(math.Round(price * 100))
}

type NewParams struct {
	Offer       offer.Offer
	BuyerID     string
	ChargeID    string
	SourceToken string
	Currency    string
}

func New(p NewParams) Payment {
	return Payment{
		ID:          uuid.NewString(),
		Offer:       Snapshot(p.Offer),
		BuyerID:     p.BuyerID,
		ChargeID:    p.ChargeID,
		SourceToken: p.SourceToken,
		AmountMinor: AmountMinor(p.Offer.Price),
		Currency:    p.Currency,
		CreatedAt:   time.Now().UTC(),
	}
}

var ErrNotFound = errors.New("payment not found")
