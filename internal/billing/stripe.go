package billing

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/geocoder89/marketplace/internal/config"
)

type StripeProcessor struct {
	client *resty.Client
}

func NewStripeProcessor(cfg config.StripeConfig) *StripeProcessor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.SecretKey, "")

	return &StripeProcessor{client: cli}
}

type stripeCharge struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Paid     bool   `json:"paid"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *StripeProcessor) Charge(ctx context.Context, req ChargeRequest) (Charge, error) {
	var ok stripeCharge
	var failed stripeError

	r := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"amount":      strconv.FormatInt(req.AmountMinor, 10),
			"currency":    req.Currency,
			"source":      req.Source,
			"description": req.Description,
		}).
		SetResult(&ok).
		SetError(&failed)

	if req.IdempotencyKey != "" {
		r.SetHeader("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := r.Post("/v1/charges")
	if err != nil {
		return Charge{}, fmt.Errorf("%w: %v", ErrProcessorUnavailable, err)
	}

	if err := mapStripeError(resp, failed); err != nil {
		return Charge{}, err
	}

	if !ok.Paid || ok.Status == "failed" || ok.ID == "" {
		return Charge{}, fmt.Errorf("%w: charge status %q", ErrChargeDeclined, ok.Status)
	}

	return Charge{
		ID:          ok.ID,
		AmountMinor: ok.Amount,
		Currency:    ok.Currency,
		Status:      ok.Status,
	}, nil
}

func mapStripeError(resp *resty.Response, failed stripeError) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	msg := failed.Error.Message
	if msg == "" {
		msg = http.StatusText(code)
	}

	switch code {
	case http.StatusBadRequest, http.StatusPaymentRequired, http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrChargeDeclined, msg)
	default:
		return fmt.Errorf("%w: http %d: %s", ErrProcessorUnavailable, code, msg)
	}
}
