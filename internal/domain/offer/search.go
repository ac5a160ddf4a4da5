package offer

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

type SortOrder string

const (
	SortNatural   SortOrder = ""
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
)

// DefaultPriceMax is the upper bound applied when priceMax is absent.
const DefaultPriceMax float64 = 1_000_000_000

const maxOffset = math.MaxInt32

// with pointers if optional, it will be nil
type SearchParams struct {
	Title    *string
	PriceMin float64
	PriceMax float64
	Sort     SortOrder
	Page     int
	PageSize int
}

type SearchDefaults struct {
	PageSize    int
	MaxPageSize int
}

// Offset is clamped to maxOffset, which is already past any stored result.
func (p SearchParams) Offset() int {
	if p.PageSize > 0 && p.Page > maxOffset/p.PageSize {
		return maxOffset
	}

	return p.Page * p.PageSize
}

// Matches applies the search filter to one offer.
func (p SearchParams) Matches(o Offer) bool {
	if p.Title != nil && !strings.Contains(strings.ToLower(o.Title), strings.ToLower(*p.Title)) {
		return false
	}

	return o.Price >= p.PriceMin && o.Price <= p.PriceMax
}

// CacheKey is a stable rendering of the normalized parameters.
func (p SearchParams) CacheKey() string {
	title := "-"
	if p.Title != nil {
		title = url.QueryEscape(strings.ToLower(*p.Title))
	}

	return fmt.Sprintf("t=%s|min=%s|max=%s|sort=%s|p=%d|ps=%d",
		title,
		strconv.FormatFloat(p.PriceMin, 'g', -1, 64),
		strconv.FormatFloat(p.PriceMax, 'g', -1, 64),
		p.Sort,
		p.Page,
		p.PageSize,
	)
}

func parseSort(raw string) SortOrder {
	switch SortOrder(raw) {
	case SortPriceAsc, SortPriceDesc:
		return SortOrder(raw)
	default:
		return SortNatural
	}
}

func parseBound(q url.Values, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid(name, "must be a number")
	}

	if v < 0 {
		return 0, invalid(name, "must not be negative")
	}

	return v, nil
}

// parsePage treats a page number beyond int range as a page past the end.
func parsePage(q url.Values) (int, error) {
	raw := strings.TrimSpace(q.Get("page"))
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return math.MaxInt, nil
	}
	if err != nil {
		return 0, invalid("page", "must be an integer")
	}

	return v, nil
}

func parseInt(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid(name, "must be an integer")
	}

	return v, nil
}

// ParseSearchParams validates untrusted query parameters. Any malformed numeric
// field is a *ValidationError; an unknown sort falls back to natural order.
func ParseSearchParams(q url.Values, d SearchDefaults) (SearchParams, error) {
	var p SearchParams

	if t := strings.TrimSpace(q.Get("title")); t != "" {
		p.Title = &t
	}

	var err error

	if p.PriceMin, err = parseBound(q, "priceMin", 0); err != nil {
		return SearchParams{}, err
	}

	if p.PriceMax, err = parseBound(q, "priceMax", DefaultPriceMax); err != nil {
		return SearchParams{}, err
	}

	if p.PriceMin > p.PriceMax {
		return SearchParams{}, invalid("priceMin", "must not exceed priceMax")
	}

	p.Sort = parseSort(strings.TrimSpace(q.Get("sort")))

	if p.Page, err = parsePage(q); err != nil {
		return SearchParams{}, err
	}

	if p.Page < 0 {
		return SearchParams{}, invalid("page", "must not be negative")
	}

	sizeKey := "pageSize"
	if q.Get(sizeKey) == "" && q.Get("offersLimit") != "" {
		sizeKey = "offersLimit"
	}

	if p.PageSize, err = parseInt(q, sizeKey, d.PageSize); err != nil {
		return SearchParams{}, err
	}

	if p.PageSize <= 0 {
		return SearchParams{}, invalid(sizeKey, "must be positive")
	}

	if d.MaxPageSize > 0 && p.PageSize > d.MaxPageSize {
		return SearchParams{}, invalid(sizeKey, fmt.Sprintf("must be at most %d", d.MaxPageSize))
	}

	return p, nil
}
