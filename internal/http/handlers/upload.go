package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/marketplace/internal/config"
	"github.com/geocoder89/marketplace/internal/media"
)

const msgMediaUnavailable = "Media service unavailable"

var errBadUpload = errors.New("bad upload")

// formFile returns the named multipart file, or nil when the request has none.
func formFile(ctx *gin.Context, name string) (*multipart.FileHeader, error) {
	fh, err := ctx.FormFile(name)

	switch {
	case err == nil:
		return fh, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		return nil, errBadUpload
	}
}

// uploadFile spools fh to a temp file and hands it to the uploader.
func uploadFile(ctx *gin.Context, up media.Uploader, fh *multipart.FileHeader, folder, publicID string) (string, error) {
	dir, err := os.MkdirTemp("", "marketplace-upload-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "upload"+strings.ToLower(filepath.Ext(fh.Filename)))

	if err := ctx.SaveUploadedFile(fh, path); err != nil {
		return "", err
	}

	uctx, cancel := config.WithTimeout(ctx.Request.Context(), mediaTimeout)
	defer cancel()

	return up.Upload(uctx, path, folder, publicID)
}

// respondUploadError maps uploader failures. Returns false when err is nil.
func respondUploadError(ctx *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, media.ErrNotImage):
		RespondBadRequest(ctx, "Uploaded file must be an image.", nil)
	case errors.Is(err, media.ErrUnavailable):
		RespondBadGateway(ctx, "media_unavailable", msgMediaUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		RespondBadGateway(ctx, "media_timeout", "Media upload timed out")
	default:
		RespondBadGateway(ctx, "media_upload_failed", "Media upload failed")
	}

	return true
}
