package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/marketplace/internal/billing"
	"github.com/geocoder89/marketplace/internal/checkout"
	"github.com/geocoder89/marketplace/internal/config"
	"github.com/geocoder89/marketplace/internal/domain/offer"
	"github.com/geocoder89/marketplace/internal/domain/payment"
	"github.com/geocoder89/marketplace/internal/http/middlewares"
	"github.com/geocoder89/marketplace/internal/utils"
)

const purchaseTimeout = 20 * time.Second

type Purchaser interface {
	Purchase(ctx context.Context, buyerID, offerID, sourceToken string) (payment.Payment, error)
}

type PaymentsHandler struct {
	checkout Purchaser
	log      *slog.Logger
}

func NewPaymentsHandler(checkout Purchaser, log *slog.Logger) *PaymentsHandler {
	if log == nil {
		log = slog.Default()
	}

	return &PaymentsHandler{checkout: checkout, log: log}
}

// Pay charges the caller for an offer and removes it from the marketplace.
func (h *PaymentsHandler) Pay(ctx *gin.Context) {
	actor, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, middlewares.MsgActionNotAllowed)
		return
	}

	var req payment.PurchaseRequest

	if !Bind(ctx, &req) {
		return
	}

	offerID := strings.TrimSpace(req.OfferID)
	if !utils.IsUUID(offerID) {
		RespondNotFound(ctx, msgOfferNotFound)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), purchaseTimeout)
	defer cancel()

	p, err := h.checkout.Purchase(cctx, actor.ID, offerID, strings.TrimSpace(req.StripeToken))

	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, payment.Receipt{
			Message:   "Payment successful",
			PaymentID: p.ID,
			ChargeID:  p.ChargeID,
		})
	case errors.Is(err, offer.ErrNotFound):
		RespondNotFound(ctx, msgOfferNotFound)
	case errors.Is(err, checkout.ErrOwnOffer):
		RespondForbidden(ctx, "You cannot buy your own offer")
	case errors.Is(err, checkout.ErrSaleNotRecorded):
		RespondBadGateway(ctx, "sale_not_recorded", checkout.MsgSaleNotRecorded)
	case errors.Is(err, billing.ErrChargeDeclined):
		RespondBadGateway(ctx, "payment_declined", "Payment was declined")
	case errors.Is(err, billing.ErrChargeFailed):
		RespondBadGateway(ctx, "payment_unavailable", "Payment service unavailable")
	default:
		h.log.ErrorContext(ctx.Request.Context(), "purchase failed", "offer_id", offerID, "err", err)
		RespondInternal(ctx, "Could not process payment")
	}
}
