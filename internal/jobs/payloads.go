package jobs

import (
	"time"

	"github.com/geocoder89/marketplace/internal/domain/payment"
)

// OfferSoldPayload tells the seller their offer was bought.
// Keep payload minimal; the payment row is the source of truth.
type OfferSoldPayload struct {
	PaymentID   string    `json:"paymentId"`
	OfferID     string    `json:"offerId"`
	OfferTitle  string    `json:"offerTitle"`
	SellerID    string    `json:"sellerId"`
	BuyerID     string    `json:"buyerId"`
	AmountMinor int64     `json:"amountMinor"`
	Currency    string    `json:"currency"`
	SoldAt      time.Time `json:"soldAt"`
}

// PaymentReconcilePayload carries a captured charge whose sale was not recorded.
type PaymentReconcilePayload struct {
	Payment     payment.Payment `json:"payment"`
	SourceToken string          `json:"sourceToken"`
}

func OfferSoldFrom(p payment.Payment) OfferSoldPayload {
	return OfferSoldPayload{
		PaymentID:   p.ID,
		OfferID:     p.Offer.ID,
		OfferTitle:  p.Offer.Title,
		SellerID:    p.Offer.OwnerID,
		BuyerID:     p.BuyerID,
		AmountMinor: p.AmountMinor,
		Currency:    p.Currency,
		SoldAt:      p.CreatedAt,
	}
}

func (p PaymentReconcilePayload) RestorePayment() payment.Payment {
	out := p.Payment
	out.SourceToken = p.SourceToken

	return out
}
