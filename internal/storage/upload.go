package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
)

// Uploader writes bytes to a pre-signed blob URL.
type Uploader struct{}

// NewUploader returns an Uploader.
func NewUploader() *Uploader {
	return &Uploader{}
}

// Upload stores data at sasURL as a block blob.
func (u *Uploader) Upload(ctx context.Context, sasURL string, data []byte, contentType string) error {
	client, err := blockblob.NewClientWithNoCredential(sasURL, nil)
	if err != nil {
		return fmt.Errorf("storage: create blob client: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = client.UploadBuffer(ctx, data, &blockblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("storage: upload blob: %w", err)
	}
	return nil
}
