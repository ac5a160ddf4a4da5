package offer

import (
	"errors"
	"maps"
	"time"
)

const (
	MaxTitleLen       = 50
	MaxDescriptionLen = 500

	DetailSize        = "size"
	DetailDreamFactor = "dreamFactor"
)

type Offer struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Details     map[string]string `json:"details,omitempty"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	OwnerID     string            `json:"ownerId"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Clone returns a copy that shares no map with o.
func (o Offer) Clone() Offer {
	o.Details = maps.Clone(o.Details)

	return o
}

// Page is one page of a search.
type Page struct {
	Items    []Offer `json:"items"`
	Count    int     `json:"count"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

func NewPage(items []Offer, total int, p SearchParams) Page {
	if items == nil {
		items = []Offer{}
	}

	return Page{
		Items:    items,
		Count:    len(items),
		Total:    total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
}

// Limits bounds what a publish or update may store.
type Limits struct {
	PriceCeiling float64
}

var (
	ErrNotFound  = errors.New("offer not found")
	ErrForbidden = errors.New("permission not granted")
)

const (
	MsgMissingParameter = "Missing parameter in the request."
	MsgLimitsExceeded   = "Max length in title and description, or max value in price have been exceeded."
	MsgNothingToUpdate  = "No parameter to update in the request."
	MsgInvalidPrice     = "Price must be a positive number."
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}

	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
