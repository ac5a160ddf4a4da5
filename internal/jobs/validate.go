package jobs

import "strings"

// ValidatePayload checks that payload matches t and carries its required ids.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	switch t {
	case JobOfferSold:
		var p OfferSoldPayload
		switch v := payload.(type) {
		case OfferSoldPayload:
			p = v
		case *OfferSoldPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.PaymentID) || blank(p.OfferID) || blank(p.SellerID) {
			return ErrInvalidJobPayload
		}
		return nil

	case JobPaymentReconcile:
		var p PaymentReconcilePayload
		switch v := payload.(type) {
		case PaymentReconcilePayload:
			p = v
		case *PaymentReconcilePayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.Payment.ID) || blank(p.Payment.ChargeID) || blank(p.Payment.Offer.ID) || blank(p.Payment.BuyerID) {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
