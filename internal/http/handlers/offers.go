package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/geocoder89/marketplace/internal/config"
	"github.com/geocoder89/marketplace/internal/domain/offer"
	"github.com/geocoder89/marketplace/internal/http/middlewares"
	"github.com/geocoder89/marketplace/internal/media"
	"github.com/geocoder89/marketplace/internal/utils"
)

const (
	msgOfferNotFound = "Offer not found"
	msgForbidden     = "Permission not granted"
)

type OffersStore interface {
	Create(ctx context.Context, o offer.Offer) (offer.Offer, error)
	GetByID(ctx context.Context, id string) (offer.Offer, error)
	Search(ctx context.Context, p offer.SearchParams) ([]offer.Offer, int, error)
	Update(ctx context.Context, ownerID string, req offer.UpdateRequest) (offer.Offer, error)
	SetImage(ctx context.Context, id, imageURL string) (offer.Offer, error)
	Delete(ctx context.Context, id string) error
}

type OffersHandler struct {
	offers   OffersStore
	media    media.Uploader
	limits   offer.Limits
	defaults offer.SearchDefaults
	log      *slog.Logger
}

func NewOffersHandler(offers OffersStore, uploader media.Uploader, cfg config.OffersConfig, log *slog.Logger) *OffersHandler {
	if uploader == nil {
		uploader = media.Disabled{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &OffersHandler{
		offers:   offers,
		media:    uploader,
		limits:   offer.Limits{PriceCeiling: cfg.PriceCeiling},
		defaults: offer.SearchDefaults{PageSize: cfg.PageSize, MaxPageSize: cfg.MaxPageSize},
		log:      log,
	}
}

// Publish creates an offer for the caller. With a picture the offer is created
// first and the image attached after upload; on upload failure the offer is removed.
func (h *OffersHandler) Publish(ctx *gin.Context) {
	actor, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, middlewares.MsgActionNotAllowed)
		return
	}

	var req offer.PublishRequest

	if !Bind(ctx, &req) {
		return
	}

	if err := req.Validate(h.limits); err != nil {
		RespondValidation(ctx, err)
		return
	}

	picture, err := formFile(ctx, "picture")
	if err != nil {
		RespondBadRequest(ctx, msgInvalidBody, gin.H{"field": "picture"})
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	o, err := h.offers.Create(cctx, offer.NewFromPublishRequest(req, actor.ID))
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "create offer failed", "err", err)
		RespondInternal(ctx, "Could not publish offer")
		return
	}

	if picture != nil {
		o, err = h.attachPicture(ctx, o, picture)
		if err != nil {
			return
		}
	}

	ctx.JSON(http.StatusOK, o)
}

// attachPicture uploads under the offer id and stores the URL. On any failure
// it deletes the offer again and has already answered the request.
func (h *OffersHandler) attachPicture(ctx *gin.Context, o offer.Offer, picture *multipart.FileHeader) (offer.Offer, error) {
	url, err := uploadFile(ctx, h.media, picture, media.FolderOffers, o.ID)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "offer picture upload failed", "offer_id", o.ID, "err", err)
		h.rollbackPublish(ctx.Request.Context(), o.ID)
		respondUploadError(ctx, err)
		return offer.Offer{}, err
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	updated, err := h.offers.SetImage(cctx, o.ID, url)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "attach offer picture failed", "offer_id", o.ID, "err", err)
		h.rollbackPublish(ctx.Request.Context(), o.ID)
		RespondBadGateway(ctx, "media_attach_failed", "Picture could not be attached to the offer")
		return offer.Offer{}, err
	}

	return updated, nil
}

func (h *OffersHandler) rollbackPublish(ctx context.Context, id string) {
	cctx, cancel := config.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	if err := h.offers.Delete(cctx, id); err != nil && !errors.Is(err, offer.ErrNotFound) {
		h.log.ErrorContext(ctx, "rollback of published offer failed", "offer_id", id, "err", err)
	}
}

// Search serves both GET /offers and GET /offers/search.
func (h *OffersHandler) Search(ctx *gin.Context) {
	params, err := offer.ParseSearchParams(ctx.Request.URL.Query(), h.defaults)
	if err != nil {
		RespondValidation(ctx, err)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	items, total, err := h.offers.Search(cctx, params)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "search offers failed", "err", err)
		RespondInternal(ctx, "Could not search offers")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, offer.NewPage(items, total, params))
}

func (h *OffersHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondNotFound(ctx, msgOfferNotFound)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	o, err := h.offers.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, offer.ErrNotFound) {
			RespondNotFound(ctx, msgOfferNotFound)
			return
		}
		RespondInternal(ctx, "Could not fetch offer")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, o)
}

// Update patches the caller's own offer. Absent or blank fields keep their value.
func (h *OffersHandler) Update(ctx *gin.Context) {
	actor, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, middlewares.MsgActionNotAllowed)
		return
	}

	var req offer.UpdateRequest

	if !Bind(ctx, &req) {
		return
	}

	req = req.Normalize()

	picture, err := formFile(ctx, "picture")
	if err != nil {
		RespondBadRequest(ctx, msgInvalidBody, gin.H{"field": "picture"})
		return
	}

	if req.ID == "" {
		RespondBadRequest(ctx, offer.MsgMissingParameter, gin.H{"field": "id"})
		return
	}

	if req.Empty() && picture == nil {
		RespondBadRequest(ctx, offer.MsgNothingToUpdate, nil)
		return
	}

	if err := req.Validate(h.limits); err != nil {
		RespondValidation(ctx, err)
		return
	}

	if !utils.IsUUID(req.ID) {
		RespondNotFound(ctx, msgOfferNotFound)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	current, err := h.offers.GetByID(cctx, req.ID)
	if err != nil {
		if errors.Is(err, offer.ErrNotFound) {
			RespondNotFound(ctx, msgOfferNotFound)
			return
		}
		RespondInternal(ctx, "Could not update offer")
		return
	}

	if err := offer.Authorize(actor.ID, current); err != nil {
		RespondForbidden(ctx, msgForbidden)
		return
	}

	// upload before any write so a failed upload changes nothing
	var imageURL string
	if picture != nil {
		imageURL, err = uploadFile(ctx, h.media, picture, media.FolderOffers, current.ID+"-"+uuid.NewString()[:8])
		if respondUploadError(ctx, err) {
			h.log.ErrorContext(ctx.Request.Context(), "offer picture upload failed", "offer_id", current.ID, "err", err)
			return
		}
	}

	updated := current

	if !req.Empty() {
		updated, err = h.offers.Update(cctx, actor.ID, req)
		if err != nil {
			h.respondWriteError(ctx, err, "Could not update offer")
			return
		}
	}

	if imageURL != "" {
		updated, err = h.offers.SetImage(cctx, current.ID, imageURL)
		if err != nil {
			h.log.ErrorContext(ctx.Request.Context(), "attach offer picture failed", "offer_id", current.ID, "err", err)
			h.respondWriteError(ctx, err, "Could not attach picture")
			return
		}
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *OffersHandler) respondWriteError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, offer.ErrNotFound):
		// sold or deleted between the ownership check and the write
		RespondNotFound(ctx, msgOfferNotFound)
	case errors.Is(err, offer.ErrForbidden):
		RespondForbidden(ctx, msgForbidden)
	default:
		h.log.ErrorContext(ctx.Request.Context(), "offer write failed", "err", err)
		RespondInternal(ctx, message)
	}
}
