package notifications

import "context"

type SaleNotificationInput struct {
	PaymentID   string
	SellerID    string
	SellerMail  string
	SellerName  string
	OfferID     string
	OfferTitle  string
	AmountMinor int64
	Currency    string
}

type Notifier interface {
	SendSaleNotification(ctx context.Context, input SaleNotificationInput) error
}
