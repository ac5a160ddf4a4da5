package offer

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type PublishRequest struct {
	Title       string   `json:"title" form:"title"`
	Description string   `json:"description" form:"description"`
	Price       *float64 `json:"price" form:"price"`
	Size        string   `json:"size" form:"size"`
	DreamFactor string   `json:"dreamFactor" form:"dreamFactor"`
}

func (r PublishRequest) Validate(limits Limits) error {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return invalid("title", MsgMissingParameter)
	case strings.TrimSpace(r.Description) == "":
		return invalid("description", MsgMissingParameter)
	case r.Price == nil:
		return invalid("price", MsgMissingParameter)
	}

	if err := validatePrice(*r.Price, limits); err != nil {
		return err
	}

	return validateText(strings.TrimSpace(r.Title), strings.TrimSpace(r.Description))
}

func validatePrice(price float64, limits Limits) error {
	// charged in minor units, so it must come to at least one cent
	if math.IsNaN(price) || math.IsInf(price, 0) || math.Round(price*100) < 1 {
		return invalid("price", MsgInvalidPrice)
	}

	if price > limits.PriceCeiling {
		return invalid("price", MsgLimitsExceeded)
	}

	return nil
}

func validateText(title, description string) error {
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return invalid("title", MsgLimitsExceeded)
	}

	if utf8.RuneCountInString(description) > MaxDescriptionLen {
		return invalid("description", MsgLimitsExceeded)
	}

	return nil
}

func details(size, dreamFactor string) map[string]string {
	d := map[string]string{}

	if size != "" {
		d[DetailSize] = size
	}

	if dreamFactor != "" {
		d[DetailDreamFactor] = dreamFactor
	}

	if len(d) == 0 {
		return nil
	}

	return d
}

// NewFromPublishRequest builds an offer owned by ownerID. The request must already be validated.
func NewFromPublishRequest(req PublishRequest, ownerID string) Offer {
	now := time.Now().UTC()

	return Offer{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Price:       *req.Price,
		Details:     details(strings.TrimSpace(req.Size), strings.TrimSpace(req.DreamFactor)),
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
