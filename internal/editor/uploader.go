package editor

import (
	"context"

	"github.com/halvard/dagaz/internal/attachment"
)

// ServiceUploader resolves staged blobs directly against the in-process
// attachment service.
type ServiceUploader struct {
	svc *attachment.Service
}

// NewServiceUploader wraps an attachment service as an Uploader.
func NewServiceUploader(svc *attachment.Service) *ServiceUploader {
	return &ServiceUploader{svc: svc}
}

// Upload stores the blob under the entry and returns its durable locator.
func (u *ServiceUploader) Upload(ctx context.Context, ownerID, entryID string, blob Blob) (string, error) {
	rec, err := u.svc.Create(ctx, ownerID, entryID, attachment.Upload{
		OriginalName: blob.Filename,
		MimeType:     blob.MimeType,
		Data:         blob.Data,
	})
	if err != nil {
		return "", err
	}
	return attachment.Locator(entryID, rec.ID), nil
}
