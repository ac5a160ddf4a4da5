package postgres

import (
	"encoding/json"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/geocoder89/marketplace/internal/domain/offer"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var offerColumns = []string{
	"id", "title", "description", "price", "details", "image_url", "owner_id", "created_at", "updated_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func offerFilter(p offer.SearchParams) sq.And {
	conds := sq.And{
		sq.GtOrEq{"price": p.PriceMin},
		sq.LtOrEq{"price": p.PriceMax},
	}

	if p.Title != nil {
		conds = append(conds, sq.ILike{"title": "%" + likeEscaper.Replace(*p.Title) + "%"})
	}

	return conds
}

// BuildSearchQuery renders one bounded SELECT for p. The last column is the
// total match count before pagination.
func BuildSearchQuery(p offer.SearchParams) (string, []any, error) {
	q := psql.
		Select(offerColumns...).
		Column("COUNT(*) OVER() AS total").
		From("offers").
		Where(offerFilter(p))

	switch p.Sort {
	case offer.SortPriceAsc:
		q = q.OrderBy("price ASC", "seq ASC")
	case offer.SortPriceDesc:
		q = q.OrderBy("price DESC", "seq ASC")
	default:
		q = q.OrderBy("seq ASC")
	}

	return q.
		Limit(uint64(p.PageSize)).
		Offset(uint64(p.Offset())).
		ToSql()
}

// BuildCountQuery counts every offer matching p's filter.
func BuildCountQuery(p offer.SearchParams) (string, []any, error) {
	return psql.
		Select("COUNT(*)").
		From("offers").
		Where(offerFilter(p)).
		ToSql()
}

// BuildUpdateQuery writes only the fields present in req, and only when
// ownerID still owns the row. Details keys are merged into the stored object.
func BuildUpdateQuery(ownerID string, req offer.UpdateRequest, now time.Time) (string, []any, error) {
	q := psql.Update("offers").Set("updated_at", now.UTC())

	if req.Title != nil {
		q = q.Set("title", *req.Title)
	}
	if req.Description != nil {
		q = q.Set("description", *req.Description)
	}
	if req.Price != nil {
		q = q.Set("price", *req.Price)
	}

	patch := map[string]string{}
	if req.Size != nil {
		patch[offer.DetailSize] = *req.Size
	}
	if req.DreamFactor != nil {
		patch[offer.DetailDreamFactor] = *req.DreamFactor
	}

	if len(patch) > 0 {
		b, err := json.Marshal(patch)
		if err != nil {
			return "", nil, err
		}
		q = q.Set("details", sq.Expr("details || ?::jsonb", string(b)))
	}

	return q.
		Where(sq.Eq{"id": req.ID, "owner_id": ownerID}).
		Suffix("RETURNING " + strings.Join(offerColumns, ", ")).
		ToSql()
}
