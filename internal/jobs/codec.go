package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/geocoder89/marketplace/internal/domain/job"
	"github.com/geocoder89/marketplace/internal/domain/payment"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return nil, err
	}

	b, err := json.Marshal(payload)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals j.Payload into the typed payload for its type.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)

	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	var out any

	switch t {
	case JobOfferSold:
		var p OfferSoldPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p

	case JobPaymentReconcile:
		var p PaymentReconcilePayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		out = p
	}

	if err := ValidatePayload(t, out); err != nil {
		return nil, err
	}

	return out, nil
}

// OfferSoldRequest builds the outbox job for a recorded sale. One job per offer.
func OfferSoldRequest(p payment.Payment) (job.CreateRequest, error) {
	b, err := EncodePayload(JobOfferSold, OfferSoldFrom(p))
	if err != nil {
		return job.CreateRequest{}, err
	}

	key := "offer:sold:" + p.Offer.ID

	return job.CreateRequest{
		Type:           string(JobOfferSold),
		Payload:        b,
		MaxAttempts:    10,
		IdempotencyKey: &key,
	}, nil
}

// PaymentReconcileRequest builds the job that retries recording a captured charge.
func PaymentReconcileRequest(p payment.Payment) (job.CreateRequest, error) {
	b, err := EncodePayload(JobPaymentReconcile, PaymentReconcilePayload{Payment: p, SourceToken: p.SourceToken})
	if err != nil {
		return job.CreateRequest{}, err
	}

	key := "payment:reconcile:" + p.ChargeID

	return job.CreateRequest{
		Type:           string(JobPaymentReconcile),
		Payload:        b,
		IdempotencyKey: &key,
	}, nil
}
