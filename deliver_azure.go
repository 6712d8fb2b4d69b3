package posterkit

import (
	"context"
	"fmt"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// blobUploader is the subset of *azblob.Client used for delivery.
type blobUploader interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

var _ blobUploader = (*azblob.Client)(nil)

// AzureDeliverer uploads artifacts as block blobs into one container.
type AzureDeliverer struct {
	client    blobUploader
	container string
	prefix    string
}

// NewAzureDeliverer connects to https://<account>.blob.core.windows.net with
// a shared key. prefix, if set, is prepended to blob names as a folder.
func NewAzureDeliverer(account, key, container, prefix string) (*AzureDeliverer, error) {
	credential, err := azblob.NewSharedKeyCredential(account, key)
	if err != nil {
		return nil, fmt.Errorf("%w: azure credential: %v", ErrDeliver, err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", account),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: azure client: %v", ErrDeliver, err)
	}
	return &AzureDeliverer{client: client, container: container, prefix: prefix}, nil
}

// Deliver uploads the artifact with its content type set.
func (d *AzureDeliverer) Deliver(ctx context.Context, name string, art *Artifact) error {
	if err := validateArtifactName(name); err != nil {
		return err
	}
	blobName := name
	if d.prefix != "" {
		blobName = path.Join(d.prefix, name)
	}
	contentType := art.Format.MIMEType()
	_, err := d.client.UploadBuffer(ctx, d.container, blobName, art.Data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("%w: uploading %s/%s: %v", ErrDeliver, d.container, blobName, err)
	}
	return nil
}
