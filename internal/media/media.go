// Package media uploads user pictures to S3-compatible object storage.
package media

import (
	"context"
	"errors"
)

var (
	ErrUnavailable  = errors.New("media service unavailable")
	ErrUploadFailed = errors.New("media upload failed")
	ErrNotImage     = errors.New("file is not an image")
)

const (
	FolderOffers = "offers"
	FolderUsers  = "users"
)

// Uploader stores the file at localPath under folder/publicID and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath, folder, publicID string) (string, error)
}

// Disabled is used when no storage is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, string) (string, error) {
	return "", ErrUnavailable
}
