package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes sale notifications to the structured log instead of a mail provider.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) SendSaleNotification(ctx context.Context, in SaleNotificationInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "notification.offer_sold",
		"payment_id", in.PaymentID,
		"seller_id", in.SellerID,
		"seller_mail", in.SellerMail,
		"offer_id", in.OfferID,
		"offer_title", in.OfferTitle,
		"amount_minor", in.AmountMinor,
		"currency", in.Currency,
	)

	return nil
}
