package offer

import (
	"strings"
	"time"
)

// UpdateRequest is a partial update. A nil or blank field leaves the stored value alone.
type UpdateRequest struct {
	ID          string   `json:"id" form:"id"`
	Title       *string  `json:"title" form:"title"`
	Description *string  `json:"description" form:"description"`
	Price       *float64 `json:"price" form:"price"`
	Size        *string  `json:"size" form:"size"`
	DreamFactor *string  `json:"dreamFactor" form:"dreamFactor"`
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}

	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}

	return &v
}

// Normalize trims text fields and drops blank ones.
func (r UpdateRequest) Normalize() UpdateRequest {
	r.ID = strings.TrimSpace(r.ID)
	r.Title = blankToNil(r.Title)
	r.Description = blankToNil(r.Description)
	r.Size = blankToNil(r.Size)
	r.DreamFactor = blankToNil(r.DreamFactor)

	return r
}

// Empty reports whether the request carries no field to change.
func (r UpdateRequest) Empty() bool {
	return r.Title == nil &&
		r.Description == nil &&
		r.Price == nil &&
		r.Size == nil &&
		r.DreamFactor == nil
}

// Validate checks the fields that are present. Call Normalize first.
func (r UpdateRequest) Validate(limits Limits) error {
	if r.ID == "" {
		return invalid("id", MsgMissingParameter)
	}

	if r.Price != nil {
		if err := validatePrice(*r.Price, limits); err != nil {
			return err
		}
	}

	title, description := "", ""
	if r.Title != nil {
		title = *r.Title
	}
	if r.Description != nil {
		description = *r.Description
	}

	return validateText(title, description)
}

// Apply returns o with the present fields replaced. Details keys are merged.
func (r UpdateRequest) Apply(o Offer, now time.Time) Offer {
	out := o.Clone()

	if r.Title != nil {
		out.Title = *r.Title
	}
	if r.Description != nil {
		out.Description = *r.Description
	}
	if r.Price != nil {
		out.Price = *r.Price
	}

	if r.Size != nil || r.DreamFactor != nil {
		if out.Details == nil {
			out.Details = map[string]string{}
		}
		if r.Size != nil {
			out.Details[DetailSize] = *r.Size
		}
		if r.DreamFactor != nil {
			out.Details[DetailDreamFactor] = *r.DreamFactor
		}
	}

	out.UpdatedAt = now.UTC()

	return out
}
